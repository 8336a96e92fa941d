package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cloudchess/lambot/internal/domains/entities"
	"github.com/cloudchess/lambot/internal/lichess"
	"github.com/cloudchess/lambot/internal/ratelimit"
	"github.com/cloudchess/lambot/pkg/logging"
	"go.uber.org/zap"
)

// StreamClient is the slice of the remote API the consumer needs.
type StreamClient interface {
	StreamEvents(ctx context.Context) (<-chan lichess.Event, <-chan error)
	AcceptChallenge(ctx context.Context, challengeId string) error
	DeclineChallenge(ctx context.Context, challengeId, reason string) error
	UserStatus(ctx context.Context, ids ...string) ([]lichess.UserStatus, error)
}

type ConsumerConfig struct {
	BotId         string
	RetryWait     time.Duration
	StatusPollGap time.Duration
	MaxStreamLife time.Duration
	Policy        ChallengePolicy
	// BypassUsers skip the per-user challenge ceiling but still
	// consume a global slot.
	BypassUsers []string
}

// Consumer runs the account event feed: admits or declines challenges
// and dispatches a supervision session per started game. It exits
// cleanly once MaxStreamLife has elapsed; the surrounding scheduler is
// expected to start a replacement.
type Consumer struct {
	client     StreamClient
	limiter    ratelimit.Limiter
	dispatcher Dispatcher
	cfg        ConsumerConfig

	activeGames sync.Map
}

func NewConsumer(client StreamClient, limiter ratelimit.Limiter, dispatcher Dispatcher, cfg ConsumerConfig) *Consumer {
	return &Consumer{
		client:     client,
		limiter:    limiter,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	lifetime, cancel := context.WithTimeout(ctx, c.cfg.MaxStreamLife)
	defer cancel()

	for {
		err := c.consumeStream(lifetime)
		if lifetime.Err() != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Info("stream lifetime reached, exiting",
				zap.Duration("life", c.cfg.MaxStreamLife),
			)
			return nil
		}
		logging.Warn("event stream disconnected, reconnecting",
			zap.Duration("retry_wait", c.cfg.RetryWait),
			zap.Error(err),
		)
		select {
		case <-time.After(c.cfg.RetryWait):
		case <-lifetime.Done():
		}
	}
}

func (c *Consumer) consumeStream(ctx context.Context) error {
	events, errc := c.client.StreamEvents(ctx)

	var poll <-chan time.Time
	if c.cfg.StatusPollGap > 0 {
		ticker := time.NewTicker(c.cfg.StatusPollGap)
		defer ticker.Stop()
		poll = ticker.C
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return <-errc
			}
			c.handleEvent(ctx, ev)
		case <-poll:
			c.pollStatus(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Consumer) handleEvent(ctx context.Context, ev lichess.Event) {
	switch ev.Type {
	case "challenge":
		if ev.Challenge == nil {
			return
		}
		if strings.EqualFold(ev.Challenge.Challenger.Id, c.cfg.BotId) {
			// our own outgoing challenge echoed back
			return
		}
		c.handleChallenge(ctx, ev.Challenge)
	case "gameStart":
		if ev.Game == nil {
			return
		}
		c.handleGameStart(ctx, ev.Game.GameId)
	case "gameFinish":
		if ev.Game == nil {
			return
		}
		c.activeGames.Delete(ev.Game.GameId)
		logging.Info("game finished", zap.String("game_id", ev.Game.GameId))
	default:
		logging.Debug("ignoring event", zap.String("type", ev.Type))
	}
}

func (c *Consumer) handleChallenge(ctx context.Context, challenge *lichess.Challenge) {
	record := challenge.Record()
	decision := Decide(record, c.cfg.Policy)
	if !decision.Accept {
		logging.Info("declining challenge",
			zap.String("challenge_id", record.ChallengeId),
			zap.String("opponent", record.OpponentId),
			zap.String("reason", decision.Reason.String()),
		)
		c.decline(ctx, record.ChallengeId, decision.Reason.ServerReason())
		return
	}

	bypass := matchAny(c.cfg.BypassUsers, record.OpponentId)
	err := c.limiter.TryReserve(ctx, ratelimit.DateKey(time.Now()), record.OpponentId, bypass)
	if err != nil {
		if errors.Is(err, ratelimit.ErrLimitExceeded) {
			logging.Info("challenge rate limited",
				zap.String("challenge_id", record.ChallengeId),
				zap.String("opponent", record.OpponentId),
			)
		} else {
			// counter store unavailable: fail closed
			logging.Error("rate limit reservation failed",
				zap.String("challenge_id", record.ChallengeId),
				zap.Error(err),
			)
		}
		c.decline(ctx, record.ChallengeId, "later")
		return
	}

	if err := c.client.AcceptChallenge(ctx, record.ChallengeId); err != nil {
		logging.Error("failed to accept challenge",
			zap.String("challenge_id", record.ChallengeId),
			zap.Error(err),
		)
		return
	}
	logging.Info("challenge accepted",
		zap.String("challenge_id", record.ChallengeId),
		zap.String("opponent", record.OpponentId),
		zap.Bool("rated", record.Rated),
	)
}

func (c *Consumer) decline(ctx context.Context, challengeId, reason string) {
	if err := c.client.DeclineChallenge(ctx, challengeId, reason); err != nil {
		logging.Error("failed to decline challenge",
			zap.String("challenge_id", challengeId),
			zap.Error(err),
		)
	}
}

// handleGameStart dispatches supervision for a new game. The feed is
// at-least-once: a duplicate start for a game we already track is
// ignored.
func (c *Consumer) handleGameStart(ctx context.Context, gameId string) {
	if _, loaded := c.activeGames.LoadOrStore(gameId, time.Now()); loaded {
		logging.Info("duplicate game start ignored", zap.String("game_id", gameId))
		return
	}
	token := entities.NewContinuationToken(gameId)
	if err := c.dispatcher.Dispatch(ctx, token); err != nil {
		c.activeGames.Delete(gameId)
		logging.Error("failed to dispatch game session",
			zap.String("game_id", gameId),
			zap.Error(err),
		)
	}
}

func (c *Consumer) pollStatus(ctx context.Context) {
	statuses, err := c.client.UserStatus(ctx, c.cfg.BotId)
	if err != nil {
		logging.Warn("status poll failed", zap.Error(err))
		return
	}
	for _, status := range statuses {
		if status.Id == c.cfg.BotId {
			logging.Debug("status poll", zap.Bool("online", status.Online))
		}
	}
}
