// Package ratelimit bounds the number of accepted challenges per day,
// both globally and per opponent. Counters are keyed by (date, scope)
// and roll over implicitly with the date key.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

const GlobalScope = "global"

var ErrLimitExceeded = errors.New("challenge rate limit exceeded")

// Limiter reserves one challenge slot for the given day and opponent.
// The reservation is all-or-nothing across the global and user scopes:
// if either ceiling would be exceeded, no counter is mutated and
// ErrLimitExceeded is returned. bypassUser skips the per-user ceiling
// (for opponents on the exclusion list) but still consumes a global slot.
type Limiter interface {
	TryReserve(ctx context.Context, day, userId string, bypassUser bool) error
}

// DateKey is the counter partition for a point in time, in UTC so every
// process agrees on when a day rolls over.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
