package dtos

import "github.com/cloudchess/lambot/internal/domains/entities"

// SessionResumeEvent is the payload of a game-supervision invocation,
// both the initial dispatch (depth 0) and every self-continuation.
type SessionResumeEvent struct {
	Token entities.ContinuationToken `json:"token"`
}
