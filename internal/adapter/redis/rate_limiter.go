package redis

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

// tokenBucketScript refills a per-key bucket based on elapsed time and takes
// one token if available. KEYS[1] bucket key, ARGV[1] now (ms), ARGV[2]
// capacity, ARGV[3] refill rate (tokens per minute). Returns 1 when allowed.
var tokenBucketScript = goredis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])

local bucket = redis.call('HMGET', key, 'tokens', 'updated')
local tokens = tonumber(bucket[1])
local updated = tonumber(bucket[2])

if tokens == nil then
    tokens = capacity
    updated = now
end

local elapsed = math.max(0, now - updated)
tokens = math.min(capacity, tokens + elapsed * rate / 60000)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call('HSET', key, 'tokens', tokens, 'updated', now)
redis.call('PEXPIRE', key, math.ceil(capacity / rate * 60000) * 2)

return allowed
`)

// RateLimiter implements per-caller token bucket rate limiting for the write
// endpoints of the web API.
type RateLimiter struct {
	client   *Client
	clock    clockwork.Clock
	capacity int
	rate     int // tokens per minute
}

func NewRateLimiter(client *Client, clock clockwork.Clock, capacity, rate int) *RateLimiter {
	return &RateLimiter{client: client, clock: clock, capacity: capacity, rate: rate}
}

// Allow consumes one token for the caller and reports whether the request may
// proceed.
func (l *RateLimiter) Allow(ctx context.Context, caller string) (bool, error) {
	key := fmt.Sprintf("rate_limit:api:%s", caller)

	allowed, err := tokenBucketScript.Run(ctx, l.client.rdb,
		[]string{key},
		l.clock.Now().UnixMilli(),
		l.capacity,
		l.rate,
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}
	return allowed == 1, nil
}
