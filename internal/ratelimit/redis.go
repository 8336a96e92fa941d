package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// counters expire two days after creation, well past their date key.
const counterTtlSecs = 172800

// reserveScript checks both ceilings and increments both counters, or
// neither. KEYS[1] is the global counter; KEYS[2], when present, the
// per-user counter. Returns 1 on a successful reservation.
var reserveScript = redis.NewScript(`
local g = tonumber(redis.call('GET', KEYS[1]) or '0')
if g >= tonumber(ARGV[1]) then
  return 0
end
if #KEYS > 1 then
  local u = tonumber(redis.call('GET', KEYS[2]) or '0')
  if u >= tonumber(ARGV[2]) then
    return 0
  end
  redis.call('INCR', KEYS[2])
  redis.call('EXPIRE', KEYS[2], ARGV[3])
end
redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], ARGV[3])
return 1
`)

// RedisLimiter implements Limiter on Redis, used by the local runner.
// Atomicity across both scopes comes from the script executing as one
// unit on the server.
type RedisLimiter struct {
	rdb         *redis.Client
	globalLimit int
	userLimit   int
}

func NewRedisLimiter(rdb *redis.Client, globalLimit, userLimit int) *RedisLimiter {
	return &RedisLimiter{
		rdb:         rdb,
		globalLimit: globalLimit,
		userLimit:   userLimit,
	}
}

func (l *RedisLimiter) TryReserve(ctx context.Context, day, userId string, bypassUser bool) error {
	keys := []string{counterKey(day, GlobalScope)}
	if !bypassUser {
		keys = append(keys, counterKey(day, userId))
	}
	granted, err := reserveScript.Run(ctx, l.rdb, keys,
		l.globalLimit, l.userLimit, counterTtlSecs).Int()
	if err != nil {
		return fmt.Errorf("failed to reserve challenge slot: %w", err)
	}
	if granted != 1 {
		return ErrLimitExceeded
	}
	return nil
}

func counterKey(day, scope string) string {
	return "challenges:" + day + ":" + scope
}
