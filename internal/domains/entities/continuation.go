package entities

import (
	"time"

	"github.com/google/uuid"
)

// ContinuationToken carries the minimal state needed to resume game
// supervision in a fresh invocation. Everything else is re-derived from
// the remote server's authoritative game stream on resume.
type ContinuationToken struct {
	GameId         string `json:"gameId"`
	Depth          int    `json:"depth"`
	ConsumedMillis int64  `json:"consumedMillis"`
	CorrelationId  string `json:"correlationId"`
}

func NewContinuationToken(gameId string) ContinuationToken {
	return ContinuationToken{
		GameId:        gameId,
		CorrelationId: uuid.NewString(),
	}
}

// Next returns the token for the follow-up invocation, accounting the
// wall-clock time consumed by the current one.
func (t ContinuationToken) Next(consumed time.Duration) ContinuationToken {
	return ContinuationToken{
		GameId:         t.GameId,
		Depth:          t.Depth + 1,
		ConsumedMillis: t.ConsumedMillis + consumed.Milliseconds(),
		CorrelationId:  t.CorrelationId,
	}
}
