// Package challenge implements the scheduled outgoing-challenge job:
// either a fixed list of challenges to known users, or a batch against
// random online bots picked around our own rating.
package challenge

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/cloudchess/lambot/internal/domains/dtos"
	"github.com/cloudchess/lambot/internal/lichess"
	"github.com/cloudchess/lambot/pkg/logging"
	"go.uber.org/zap"
)

// spacing between consecutive challenges to the same user, so the
// remote server does not drop them as spam
const challengeSpacing = 3 * time.Second

const onlineBotsLimit = 200

type Client interface {
	CreateChallenge(ctx context.Context, userId string, rated bool, limit dtos.TimeLimit) error
	OnlineBots(ctx context.Context, limit int) ([]lichess.BotInfo, error)
	UserRating(ctx context.Context, userId, perf string) (int, error)
}

type Generator struct {
	client Client
	botId  string
}

func NewGenerator(client Client, botId string) *Generator {
	return &Generator{
		client: client,
		botId:  botId,
	}
}

func (g *Generator) Handle(ctx context.Context, event dtos.ChallengeBatchEvent) error {
	switch {
	case len(event.Specific) > 0:
		return g.specific(ctx, event.Specific)
	case event.Random != nil:
		return g.random(ctx, *event.Random)
	default:
		return fmt.Errorf("empty challenge batch event")
	}
}

func (g *Generator) specific(ctx context.Context, challenges []dtos.KnownUserChallenge) error {
	first := true
	for _, challenge := range challenges {
		repeat := challenge.Repeat
		if repeat < 1 {
			repeat = 1
		}
		for i := 0; i < repeat; i++ {
			if !first {
				select {
				case <-time.After(challengeSpacing):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			first = false
			err := g.client.CreateChallenge(ctx, challenge.UserId, challenge.Rated, challenge.TimeLimit)
			if err != nil {
				logging.Error("failed to create challenge",
					zap.String("user_id", challenge.UserId),
					zap.Error(err),
				)
			} else {
				logging.Info("challenge created", zap.String("user_id", challenge.UserId))
			}
		}
	}
	return nil
}

// random challenges ChallengeCount online bots at the chosen time
// control: three quarters at or below our rating (closest first), the
// rest above it.
func (g *Generator) random(ctx context.Context, event dtos.RandomChallenge) error {
	if len(event.TimeLimitOptions) == 0 {
		return fmt.Errorf("no time limit options given")
	}
	limit := event.TimeLimitOptions[rand.Intn(len(event.TimeLimitOptions))]
	perf := limit.PerfType()

	ourRating, err := g.client.UserRating(ctx, g.botId, perf)
	if err != nil {
		return fmt.Errorf("failed to fetch own %s rating: %w", perf, err)
	}

	bots, err := g.client.OnlineBots(ctx, onlineBotsLimit)
	if err != nil {
		return fmt.Errorf("failed to list online bots: %w", err)
	}

	opponents := pickOpponents(bots, g.botId, perf, ourRating, event.ChallengeCount)
	for _, opponent := range opponents {
		err := g.client.CreateChallenge(ctx, opponent.Id, event.Rated, limit)
		if err != nil {
			logging.Error("failed to create challenge",
				zap.String("user_id", opponent.Id),
				zap.Error(err),
			)
			continue
		}
		logging.Info("challenge created",
			zap.String("user_id", opponent.Id),
			zap.String("perf", perf),
		)
	}
	return nil
}

func pickOpponents(bots []lichess.BotInfo, selfId, perf string, ourRating, count int) []lichess.BotInfo {
	rated := bots[:0:0]
	for _, bot := range bots {
		if bot.Id == selfId {
			continue
		}
		if _, ok := bot.RatingFor(perf); ok {
			rated = append(rated, bot)
		}
	}
	sort.Slice(rated, func(i, j int) bool {
		ri, _ := rated[i].RatingFor(perf)
		rj, _ := rated[j].RatingFor(perf)
		return ri < rj
	})

	lowerCount := (count * 3) / 4
	upperCount := count - lowerCount

	var opponents []lichess.BotInfo
	// walk downwards from our rating for the easier band
	for i := len(rated) - 1; i >= 0 && len(opponents) < lowerCount; i-- {
		if r, _ := rated[i].RatingFor(perf); r <= ourRating {
			opponents = append(opponents, rated[i])
		}
	}
	for _, bot := range rated {
		if len(opponents) >= lowerCount+upperCount {
			break
		}
		if r, _ := bot.RatingFor(perf); r > ourRating {
			opponents = append(opponents, bot)
		}
	}
	return opponents
}
