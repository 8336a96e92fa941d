// Package engine provides the "compute a move" capability consumed by
// game sessions. Implementations are interchangeable: a dedicated
// compute Lambda in production, a local UCI subprocess for development.
package engine

import (
	"context"

	"github.com/cloudchess/lambot/internal/domains/dtos"
)

type MoveComputer interface {
	ComputeMove(ctx context.Context, req dtos.ComputeMoveRequest) (dtos.ComputeMoveResponse, error)
}
