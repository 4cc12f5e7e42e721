package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/champsing/mercuryland/internal/domain"
)

const leaderboardKey = "cache:leaderboard"

// LeaderboardCache caches the rendered leaderboard so the public endpoint
// never hammers Postgres. Entries expire after a minute; a miss is signalled
// by (nil, nil).
type LeaderboardCache struct {
	client *Client
	ttl    time.Duration
}

func NewLeaderboardCache(client *Client) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: time.Minute}
}

func (c *LeaderboardCache) Get(ctx context.Context) ([]domain.CoinAccount, error) {
	data, err := c.client.rdb.Get(ctx, leaderboardKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leaderboard cache read failed: %w", err)
	}

	var accounts []domain.CoinAccount
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode cached leaderboard: %w", err)
	}
	return accounts, nil
}

func (c *LeaderboardCache) Set(ctx context.Context, accounts []domain.CoinAccount) error {
	data, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard: %w", err)
	}

	if err := c.client.rdb.Set(ctx, leaderboardKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("leaderboard cache write failed: %w", err)
	}
	return nil
}
