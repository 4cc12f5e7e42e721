package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Notifier posts messages to the public exchange channel. It implements
// coin.Announcer.
type Notifier struct {
	session   *discordgo.Session
	channelID string
}

func (n *Notifier) Announce(_ context.Context, content string) error {
	if _, err := n.session.ChannelMessageSend(n.channelID, content); err != nil {
		return fmt.Errorf("failed to send channel message: %w", err)
	}
	return nil
}
