// Package youtube talks to the YouTube Data API v3 and the public channel
// live page. Only the handful of calls the chat pipeline needs are
// implemented.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultAPIBaseURL   = "https://www.googleapis.com/youtube/v3"
	defaultWatchBaseURL = "https://www.youtube.com"

	// A page body past this size is not the page we expect.
	maxProbeBodySize = 10 << 20
)

// Client is a minimal YouTube Data API v3 client authenticated by API key.
type Client struct {
	http         *http.Client
	apiKey       string
	apiBaseURL   string
	watchBaseURL string
}

func NewClient(apiKey string) *Client {
	return &Client{
		http:         &http.Client{Timeout: 30 * time.Second},
		apiKey:       apiKey,
		apiBaseURL:   defaultAPIBaseURL,
		watchBaseURL: defaultWatchBaseURL,
	}
}

// ProbeLive fetches the channel's public /live page and reports whether a
// broadcast is running, along with its video ID when one can be extracted.
func (c *Client) ProbeLive(ctx context.Context, channelID string) (videoID string, live bool, err error) {
	probeURL := fmt.Sprintf("%s/channel/%s/live", c.watchBaseURL, channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to build live probe request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("live probe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("live probe returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBodySize))
	if err != nil {
		return "", false, fmt.Errorf("failed to read live page: %w", err)
	}

	videoID, live = parseLivePage(string(body))
	return videoID, live, nil
}

// ActiveLiveChatID resolves a broadcast video to its live chat ID. Returns
// empty when the video has no active chat.
func (c *Client) ActiveLiveChatID(ctx context.Context, videoID string) (string, error) {
	query := url.Values{}
	query.Set("part", "liveStreamingDetails")
	query.Set("id", videoID)

	var res videoListResponse
	if err := c.get(ctx, "/videos", query, &res); err != nil {
		return "", err
	}
	if len(res.Items) == 0 {
		return "", fmt.Errorf("video %s not found", videoID)
	}
	return res.Items[0].LiveStreamingDetails.ActiveLiveChatID, nil
}

// FetchChatPage retrieves one page of live chat messages.
func (c *Client) FetchChatPage(ctx context.Context, liveChatID, pageToken string) (*ChatPage, error) {
	query := url.Values{}
	query.Set("part", "snippet,authorDetails")
	query.Set("liveChatId", liveChatID)
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	var page ChatPage
	if err := c.get(ctx, "/liveChat/messages", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	query.Set("key", c.apiKey)
	reqURL := c.apiBaseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("youtube API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("youtube API returned status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode youtube API response: %w", err)
	}
	return nil
}

var errRateLimited = fmt.Errorf("youtube API rate limited")
