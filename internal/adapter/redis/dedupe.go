package redis

import (
	"context"
	"fmt"
	"time"
)

// Chat message IDs only need to be remembered for the lifetime of a stream;
// a day is generous.
const dedupeTTL = 24 * time.Hour

// Dedupe tracks seen chat message IDs so a re-delivered chat page never
// awards twice.
type Dedupe struct {
	client *Client
}

func NewDedupe(client *Client) *Dedupe {
	return &Dedupe{client: client}
}

// FirstSeen marks messageID as seen and reports whether this call was the
// first to do so. SET NX makes the check-and-mark atomic across instances.
func (d *Dedupe) FirstSeen(ctx context.Context, messageID string) (bool, error) {
	key := fmt.Sprintf("chat:seen:%s", messageID)

	first, err := d.client.rdb.SetNX(ctx, key, "1", dedupeTTL).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe check failed: %w", err)
	}
	return first, nil
}
