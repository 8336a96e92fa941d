package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudchess/lambot/internal/domains/dtos"
	"github.com/cloudchess/lambot/internal/domains/entities"
	"github.com/cloudchess/lambot/internal/engine"
	"github.com/cloudchess/lambot/internal/lichess"
	"github.com/cloudchess/lambot/pkg/logging"
	"github.com/notnil/chess"
	"go.uber.org/zap"
)

// GameClient is the slice of the remote API a session needs.
type GameClient interface {
	StreamGame(ctx context.Context, gameId string) (<-chan lichess.GameEvent, <-chan error)
	SubmitMove(ctx context.Context, gameId, uciMove string) error
	AbortGame(ctx context.Context, gameId string) error
	ResignGame(ctx context.Context, gameId string) error
}

// OpeningBook is the lookup capability; ok is false when the table has
// no entry or the game is past the book's ply depth.
type OpeningBook interface {
	Lookup(ctx context.Context, fen string, ply int) (string, bool, error)
}

// Recorder archives finished games.
type Recorder interface {
	RecordMatch(ctx context.Context, record entities.MatchRecord) error
}

type SessionConfig struct {
	BotId             string
	AbortAfter        time.Duration
	InvocationBudget  time.Duration
	MaxRecursionDepth int
}

// Session supervises one game from the current point to termination or
// to the invocation budget, whichever comes first. It holds no durable
// state: every decision is made against a position replayed from the
// authoritative remote stream, so a resumed session behaves exactly
// like a fresh one.
type Session struct {
	client     GameClient
	book       OpeningBook
	mover      engine.MoveComputer
	dispatcher Dispatcher
	recorder   Recorder
	cfg        SessionConfig
}

// NewSession wires a session. book and recorder may be nil.
func NewSession(
	client GameClient,
	book OpeningBook,
	mover engine.MoveComputer,
	dispatcher Dispatcher,
	recorder Recorder,
	cfg SessionConfig,
) *Session {
	return &Session{
		client:     client,
		book:       book,
		mover:      mover,
		dispatcher: dispatcher,
		recorder:   recorder,
		cfg:        cfg,
	}
}

func (s *Session) Run(ctx context.Context, token entities.ContinuationToken) error {
	started := time.Now()
	logging.Info("supervising game",
		zap.String("game_id", token.GameId),
		zap.Int("depth", token.Depth),
		zap.String("correlation_id", token.CorrelationId),
	)

	events, errc := s.client.StreamGame(ctx, token.GameId)

	budget := time.NewTimer(s.cfg.InvocationBudget)
	defer budget.Stop()
	stall := time.NewTimer(s.cfg.AbortAfter)
	defer stall.Stop()

	var (
		game       *chess.Game
		ourColor   chess.Color
		haveColor  bool
		opponentId string
	)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				err := <-errc
				if errors.Is(err, io.EOF) {
					// mid-game disconnect: hand off so a fresh
					// invocation re-synchronizes from remote state
					return s.handoff(ctx, token, started)
				}
				return fmt.Errorf("game stream failed: %w", err)
			}

			var progress lichess.GameProgress
			switch ev.Type {
			case "gameFull":
				switch s.cfg.BotId {
				case ev.White.Id:
					ourColor, opponentId = chess.White, ev.Black.Id
				case ev.Black.Id:
					ourColor, opponentId = chess.Black, ev.White.Id
				default:
					return fmt.Errorf("bot %s is not a participant of game %s", s.cfg.BotId, token.GameId)
				}
				haveColor = true
				if ev.State == nil {
					continue
				}
				progress = *ev.State
			case "gameState":
				if !haveColor {
					continue
				}
				progress = ev.GameProgress
			default:
				// chat lines and the like
				continue
			}

			replayed, err := ReplayMoves(progress.Moves)
			if err != nil {
				// the authoritative feed produced an unplayable game;
				// nothing sane can be submitted from here
				logging.Error("failed to reconstruct game from remote state",
					zap.String("game_id", token.GameId),
					zap.String("moves", progress.Moves),
					zap.Error(err),
				)
				return err
			}
			game = replayed

			if progress.Terminal() {
				s.recordResult(ctx, token.GameId, game, progress, ourColor, opponentId)
				logging.Info("game finished",
					zap.String("game_id", token.GameId),
					zap.String("status", progress.Status),
					zap.String("winner", progress.Winner),
				)
				return nil
			}

			stall.Reset(s.cfg.AbortAfter)

			if game.Position().Turn() == ourColor {
				if err := s.playTurn(ctx, token.GameId, game, ourColor, progress); err != nil {
					logging.Error("turn failed, resigning game",
						zap.String("game_id", token.GameId),
						zap.Error(err),
					)
					if rerr := s.client.ResignGame(ctx, token.GameId); rerr != nil {
						logging.Error("failed to resign game",
							zap.String("game_id", token.GameId),
							zap.Error(rerr),
						)
					}
					return err
				}
			}

		case <-budget.C:
			return s.handoff(ctx, token, started)

		case <-stall.C:
			return s.abortStalled(ctx, token.GameId, game)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// playTurn selects and submits our move: the book while within its ply
// depth, the move computer otherwise. A move that fails the local
// legality check is never sent.
func (s *Session) playTurn(
	ctx context.Context,
	gameId string,
	game *chess.Game,
	ourColor chess.Color,
	progress lichess.GameProgress,
) error {
	ply := len(game.Moves())

	var move string
	if s.book != nil {
		bookMove, ok, err := s.book.Lookup(ctx, game.FEN(), ply)
		if err != nil {
			logging.Warn("opening lookup failed",
				zap.String("game_id", gameId),
				zap.Error(err),
			)
		} else if ok {
			move = bookMove
		}
	}

	if move == "" {
		remaining, increment := clockFor(ourColor, progress)
		resp, err := s.mover.ComputeMove(ctx, dtos.ComputeMoveRequest{
			MovesPlayed: progress.Moves,
			ClockMillis: dtos.ClockMillis{
				Remaining: remaining,
				Increment: increment,
			},
		})
		if err != nil {
			return fmt.Errorf("move computation failed: %w", err)
		}
		move = resp.BestMove
	}

	// game is rebuilt from the remote move list on every event, so
	// applying the candidate here is a pure legality probe
	if err := game.MoveStr(move); err != nil {
		return fmt.Errorf("%w: %s on %s", ErrIllegalMove, move, progress.Moves)
	}
	if err := s.client.SubmitMove(ctx, gameId, move); err != nil {
		return fmt.Errorf("%w: %s at ply %d: %v", ErrMoveRejected, move, ply, err)
	}
	logging.Info("move submitted",
		zap.String("game_id", gameId),
		zap.String("move", move),
		zap.Int("ply", ply),
	)
	return nil
}

func (s *Session) handoff(ctx context.Context, token entities.ContinuationToken, started time.Time) error {
	next := token.Next(time.Since(started))
	if next.Depth > s.cfg.MaxRecursionDepth {
		logging.Error("recursion budget exhausted, forfeiting game",
			zap.String("game_id", token.GameId),
			zap.Int("depth", token.Depth),
			zap.Int64("consumed_millis", token.ConsumedMillis),
		)
		if err := s.client.ResignGame(ctx, token.GameId); err != nil {
			logging.Error("failed to resign game",
				zap.String("game_id", token.GameId),
				zap.Error(err),
			)
		}
		return ErrRecursionBudget
	}
	logging.Info("execution budget spent, handing off",
		zap.String("game_id", token.GameId),
		zap.Int("next_depth", next.Depth),
		zap.String("correlation_id", token.CorrelationId),
	)
	if err := s.dispatcher.Dispatch(ctx, next); err != nil {
		return fmt.Errorf("failed to dispatch continuation: %w", err)
	}
	return nil
}

func (s *Session) abortStalled(ctx context.Context, gameId string, game *chess.Game) error {
	logging.Warn("no game activity within abort window",
		zap.String("game_id", gameId),
		zap.Duration("abort_after", s.cfg.AbortAfter),
	)
	// the server only aborts games that have not really started
	if game == nil || len(game.Moves()) < 2 {
		if err := s.client.AbortGame(ctx, gameId); err != nil {
			logging.Error("failed to abort game", zap.String("game_id", gameId), zap.Error(err))
		}
	} else {
		if err := s.client.ResignGame(ctx, gameId); err != nil {
			logging.Error("failed to resign game", zap.String("game_id", gameId), zap.Error(err))
		}
	}
	return ErrOpponentStall
}

func (s *Session) recordResult(
	ctx context.Context,
	gameId string,
	game *chess.Game,
	progress lichess.GameProgress,
	ourColor chess.Color,
	opponentId string,
) {
	if s.recorder == nil {
		return
	}
	result := progress.Status
	if progress.Winner != "" {
		result = fmt.Sprintf("%s:%s", progress.Status, progress.Winner)
	}
	record := entities.MatchRecord{
		GameId:     gameId,
		OpponentId: opponentId,
		OurColor:   strings.ToLower(ourColor.Name()),
		Result:     result,
		Pgn:        game.String(),
		FinishedAt: time.Now().UTC(),
	}
	if err := s.recorder.RecordMatch(ctx, record); err != nil {
		logging.Error("failed to record match",
			zap.String("game_id", gameId),
			zap.Error(err),
		)
	}
}

// ReplayMoves rebuilds a game from a space-separated UCI move list.
func ReplayMoves(moves string) (*chess.Game, error) {
	game := chess.NewGame(chess.UseNotation(chess.UCINotation{}))
	for _, move := range strings.Fields(moves) {
		if err := game.MoveStr(move); err != nil {
			return nil, fmt.Errorf("invalid move %q in history: %w", move, err)
		}
	}
	return game, nil
}

func clockFor(color chess.Color, progress lichess.GameProgress) (remaining, increment int64) {
	if color == chess.White {
		return progress.Wtime, progress.Winc
	}
	return progress.Btime, progress.Binc
}
