package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/champsing/mercuryland/internal/domain"
	"github.com/champsing/mercuryland/internal/metrics"
	"github.com/champsing/mercuryland/internal/platform/retry"
)

// The API's pollingIntervalMillis can drop very low on busy chats; polling
// faster than this floor burns the daily quota.
const minChatPollInterval = 10 * time.Second

// API is the subset of the YouTube client the poller uses.
type API interface {
	ProbeLive(ctx context.Context, channelID string) (videoID string, live bool, err error)
	ActiveLiveChatID(ctx context.Context, videoID string) (string, error)
	FetchChatPage(ctx context.Context, liveChatID, pageToken string) (*ChatPage, error)
}

// EventHandler consumes normalized chat events.
type EventHandler interface {
	HandleChatEvent(ctx context.Context, ev domain.ChatEvent) (int64, error)
}

// Poller watches a channel for live broadcasts and streams their chat into
// the event handler.
type Poller struct {
	api          API
	handler      EventHandler
	channelID    string
	clock        clockwork.Clock
	idleInterval time.Duration
	retryPolicy  retry.Policy
}

func NewPoller(api API, handler EventHandler, channelID string, idleInterval time.Duration, clock clockwork.Clock) *Poller {
	return &Poller{
		api:          api,
		handler:      handler,
		channelID:    channelID,
		clock:        clock,
		idleInterval: idleInterval,
		retryPolicy: retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   2 * time.Second,
			RateLimitBackoff: 30 * time.Second,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Warn("Retrying chat page fetch", "attempt", attempt, "backoff", backoff, "error", err)
			},
		},
	}
}

// Run blocks until ctx is cancelled. While no broadcast is live it probes the
// channel page every idle interval; when one starts it follows the chat until
// the broadcast goes offline, then returns to probing.
func (p *Poller) Run(ctx context.Context) error {
	slog.Info("YouTube poller started", "channel", p.channelID, "idle_interval", p.idleInterval)

	for {
		if live := p.probeOnce(ctx); live != "" {
			if err := p.streamChat(ctx, live); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				slog.Error("Chat stream aborted", "video", live, "error", err)
			}
		}

		select {
		case <-p.clock.After(p.idleInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// probeOnce returns the live chat ID of the running broadcast, or "".
func (p *Poller) probeOnce(ctx context.Context) string {
	videoID, live, err := p.api.ProbeLive(ctx, p.channelID)
	if err != nil {
		metrics.LiveProbesTotal.WithLabelValues("error").Inc()
		slog.Warn("Live probe failed", "channel", p.channelID, "error", err)
		return ""
	}
	if !live {
		metrics.LiveProbesTotal.WithLabelValues("offline").Inc()
		return ""
	}
	if videoID == "" {
		metrics.LiveProbesTotal.WithLabelValues("error").Inc()
		slog.Error("Broadcast is live but no video ID found", "channel", p.channelID)
		return ""
	}
	metrics.LiveProbesTotal.WithLabelValues("live").Inc()

	chatID, err := p.api.ActiveLiveChatID(ctx, videoID)
	if err != nil {
		slog.Warn("Failed to resolve live chat ID", "video", videoID, "error", err)
		return ""
	}
	if chatID == "" {
		slog.Info("Broadcast has no active chat", "video", videoID)
		return ""
	}

	slog.Info("Broadcast detected", "video", videoID)
	return chatID
}

// streamChat follows one broadcast's chat until offlineAt appears. A failed
// message is logged and skipped; a page that still fails after retries ends
// the stream and the poller falls back to probing.
func (p *Poller) streamChat(ctx context.Context, liveChatID string) error {
	classify := func(err error) retry.Action {
		if errors.Is(err, errRateLimited) {
			return retry.After
		}
		return retry.Retry
	}

	pageToken := ""
	for {
		page, err := retry.Do(ctx, p.retryPolicy, classify, func() (*ChatPage, error) {
			return p.api.FetchChatPage(ctx, liveChatID, pageToken)
		})
		if err != nil {
			metrics.ChatPagesTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("failed to fetch chat page: %w", err)
		}
		metrics.ChatPagesTotal.WithLabelValues("ok").Inc()
		metrics.ChatMessagesTotal.Add(float64(len(page.Items)))

		for _, msg := range page.Items {
			if _, err := p.handler.HandleChatEvent(ctx, msg.ChatEvent()); err != nil {
				slog.Error("Failed to handle chat message", "message_id", msg.ID, "error", err)
			}
		}

		if page.OfflineAt != "" {
			slog.Info("Broadcast went offline", "live_chat_id", liveChatID)
			return nil
		}

		wait := time.Duration(page.PollingIntervalMillis) * time.Millisecond
		if wait < minChatPollInterval {
			wait = minChatPollInterval
		}
		pageToken = page.NextPageToken

		select {
		case <-p.clock.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
