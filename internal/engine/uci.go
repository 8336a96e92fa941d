package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudchess/lambot/internal/domains/dtos"
	"github.com/cloudchess/lambot/pkg/logging"
	"github.com/freeeve/uci"
	"github.com/notnil/chess"
	"go.uber.org/zap"
)

const (
	defaultSearchDepth = 12
	shallowSearchDepth = 6
	lowClockThreshold  = 30 * time.Second
)

// UCIMover computes moves with a local UCI engine subprocess. Used by
// the single-process runner and anywhere a compute Lambda is overkill.
type UCIMover struct {
	eng         *uci.Engine
	searchDepth int
}

func NewUCIMover(enginePath string) (*UCIMover, error) {
	eng, err := uci.NewEngine(enginePath)
	if err != nil {
		return nil, fmt.Errorf("failed to start engine %s: %w", enginePath, err)
	}
	err = eng.SetOptions(uci.Options{
		MultiPV: 1,
		Hash:    128,
		Ponder:  false,
		OwnBook: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure engine: %w", err)
	}
	return &UCIMover{
		eng:         eng,
		searchDepth: defaultSearchDepth,
	}, nil
}

func (m *UCIMover) ComputeMove(_ context.Context, req dtos.ComputeMoveRequest) (dtos.ComputeMoveResponse, error) {
	fen, err := fenAfter(req.MovesPlayed)
	if err != nil {
		return dtos.ComputeMoveResponse{}, err
	}
	if err := m.eng.SetFEN(fen); err != nil {
		return dtos.ComputeMoveResponse{}, fmt.Errorf("failed to set position: %w", err)
	}
	depth := m.searchDepth
	if time.Duration(req.ClockMillis.Remaining)*time.Millisecond < lowClockThreshold {
		depth = shallowSearchDepth
	}
	searchStart := time.Now()
	results, err := m.eng.GoDepth(depth, uci.HighestDepthOnly)
	if err != nil {
		return dtos.ComputeMoveResponse{}, fmt.Errorf("engine search failed: %w", err)
	}
	if results.BestMove == "" {
		return dtos.ComputeMoveResponse{}, fmt.Errorf("engine returned no move for %s", fen)
	}
	logging.Info("engine move computed",
		zap.String("move", results.BestMove),
		zap.Int("depth", depth),
		zap.Duration("search_time", time.Since(searchStart)),
	)
	return dtos.ComputeMoveResponse{
		BestMove: results.BestMove,
		SearchDetails: &dtos.SearchDetails{
			DepthSearched:        depth,
			SearchDurationMillis: time.Since(searchStart).Milliseconds(),
		},
	}, nil
}

func fenAfter(movesPlayed string) (string, error) {
	game := chess.NewGame(chess.UseNotation(chess.UCINotation{}))
	for _, move := range strings.Fields(movesPlayed) {
		if err := game.MoveStr(move); err != nil {
			return "", fmt.Errorf("invalid move %q in history: %w", move, err)
		}
	}
	return game.FEN(), nil
}
