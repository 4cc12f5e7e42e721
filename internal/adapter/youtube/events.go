package youtube

import (
	"regexp"
	"strings"
	"time"

	"github.com/champsing/mercuryland/internal/domain"
)

// The /live page embeds the active video ID in a player config blob.
var liveVideoIDPattern = regexp.MustCompile(`video_id=([_0-9a-zA-Z]*)"}`)

// parseLivePage inspects the channel /live page HTML. The isLive marker also
// appears once on scheduled (not yet started) broadcasts, so a single
// occurrence does not count as live.
func parseLivePage(body string) (videoID string, live bool) {
	if strings.Count(body, `"isLive":true`) < 2 {
		return "", false
	}
	m := liveVideoIDPattern.FindStringSubmatch(body)
	if m == nil {
		return "", true
	}
	return m[1], true
}

// videoListResponse is the subset of videos.list we read.
type videoListResponse struct {
	Items []struct {
		ID                   string `json:"id"`
		LiveStreamingDetails struct {
			ActiveLiveChatID string `json:"activeLiveChatId"`
			ActualEndTime    string `json:"actualEndTime"`
		} `json:"liveStreamingDetails"`
	} `json:"items"`
}

// ChatPage is one page of liveChatMessages.list.
type ChatPage struct {
	NextPageToken         string            `json:"nextPageToken"`
	PollingIntervalMillis int64             `json:"pollingIntervalMillis"`
	OfflineAt             string            `json:"offlineAt"`
	Items                 []LiveChatMessage `json:"items"`
}

// LiveChatMessage is the subset of a chat message the accrual pipeline needs.
type LiveChatMessage struct {
	ID      string `json:"id"`
	Snippet struct {
		Type           string    `json:"type"`
		PublishedAt    time.Time `json:"publishedAt"`
		DisplayMessage string    `json:"displayMessage"`
	} `json:"snippet"`
	AuthorDetails struct {
		ChannelID     string `json:"channelId"`
		DisplayName   string `json:"displayName"`
		IsChatSponsor bool   `json:"isChatSponsor"`
	} `json:"authorDetails"`
}

// ChatEvent converts an API message to the normalized domain event.
func (m LiveChatMessage) ChatEvent() domain.ChatEvent {
	return domain.ChatEvent{
		MessageID:   m.ID,
		AuthorID:    m.AuthorDetails.ChannelID,
		AuthorName:  m.AuthorDetails.DisplayName,
		IsSponsor:   m.AuthorDetails.IsChatSponsor,
		Kind:        m.Snippet.Type,
		Message:     m.Snippet.DisplayMessage,
		PublishedAt: m.Snippet.PublishedAt,
	}
}
