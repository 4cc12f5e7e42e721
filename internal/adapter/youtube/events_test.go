package youtube

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLivePage_Live(t *testing.T) {
	body := `..."isLive":true..."isLive":true...{"video_id=dQw4w9WgXcQ"}...`

	videoID, live := parseLivePage(body)
	assert.True(t, live)
	assert.Equal(t, "dQw4w9WgXcQ", videoID)
}

func TestParseLivePage_ScheduledOnly(t *testing.T) {
	// A scheduled broadcast mentions isLive once; that is not a running stream.
	body := `..."isLive":true...{"video_id=dQw4w9WgXcQ"}...`

	_, live := parseLivePage(body)
	assert.False(t, live)
}

func TestParseLivePage_Offline(t *testing.T) {
	_, live := parseLivePage(`<html>nothing here</html>`)
	assert.False(t, live)
}

func TestParseLivePage_LiveButNoID(t *testing.T) {
	body := `"isLive":true "isLive":true`

	videoID, live := parseLivePage(body)
	assert.True(t, live)
	assert.Empty(t, videoID)
}

func TestChatEventMapping(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var msg LiveChatMessage
	msg.ID = "m1"
	msg.Snippet.Type = "textMessageEvent"
	msg.Snippet.PublishedAt = at
	msg.Snippet.DisplayMessage = "hello"
	msg.AuthorDetails.ChannelID = "UC1"
	msg.AuthorDetails.DisplayName = "alice"
	msg.AuthorDetails.IsChatSponsor = true

	ev := msg.ChatEvent()
	assert.Equal(t, "m1", ev.MessageID)
	assert.Equal(t, "UC1", ev.AuthorID)
	assert.Equal(t, "alice", ev.AuthorName)
	assert.True(t, ev.IsSponsor)
	assert.Equal(t, "textMessageEvent", ev.Kind)
	assert.Equal(t, "hello", ev.Message)
	assert.Equal(t, at, ev.PublishedAt)
}
