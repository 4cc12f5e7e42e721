// Package discord runs the community bot: slash commands for coin balance,
// account linking, purchases, and penalty-vote nominations.
package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"

	"github.com/champsing/mercuryland/internal/coin"
	"github.com/champsing/mercuryland/internal/domain"
)

// Bot wraps a discordgo session and dispatches slash commands.
type Bot struct {
	session  *discordgo.Session
	ledger   domain.LedgerRepository
	exchange *coin.Exchange
	ballot   *Ballot

	adminIDs        map[string]bool
	guildID         string
	publicChannelID string
	clock           clockwork.Clock
}

func NewBot(token string, ledger domain.LedgerRepository, adminIDs []string, guildID, publicChannelID string) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	admins := make(map[string]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}

	b := &Bot{
		session:         session,
		ledger:          ledger,
		ballot:          NewBallot(),
		adminIDs:        admins,
		guildID:         guildID,
		publicChannelID: publicChannelID,
		clock:           clockwork.NewRealClock(),
	}
	// Purchases announce through the bot's own session, so the exchange is
	// assembled here rather than handed in.
	b.exchange = coin.NewExchange(ledger, b.Notifier(), b.clock)
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	return b, nil
}

// Open connects to the gateway and registers the slash commands.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord connection: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// Notifier returns the purchase announcer bound to the public channel.
func (b *Bot) Notifier() *Notifier {
	return &Notifier{session: b.session, channelID: b.publicChannelID}
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	slog.Info("Discord bot logged in", "username", event.User.Username, "id", event.User.ID)

	for _, cmd := range commands() {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, b.guildID, cmd); err != nil {
			slog.Error("Failed to register slash command", "command", cmd.Name, "error", err)
		}
	}
}

func commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "coin",
			Description: "查詢水星幣餘額",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "channel",
					Description: "YouTube 頻道 ID，若忽略則使用您的 Discord 帳號",
				},
			},
		},
		{
			Name:        "give",
			Description: "添加水星幣 (管理員)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "channel",
					Description: "YouTube 頻道 ID",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "數量",
					Required:    true,
				},
			},
		},
		{
			Name:        "link",
			Description: "連結 Discord 帳號至 YouTube 頻道",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "channel",
					Description: "YouTube 頻道 ID",
					Required:    true,
				},
			},
		},
		{
			Name:        "unlink",
			Description: "解除 Discord 帳號與 YouTube 頻道的連結",
		},
		{
			Name:        "purchase",
			Description: "用水星幣兌換",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "booster",
					Description: "惩罚加倍",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "level",
							Description: "倍率 (2-9)",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "content",
							Description: "加倍的懲罰",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "overtime",
					Description: "直播加班",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "hours",
							Description: "小時數 (1-24)",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "content",
							Description: "加班的直播",
							Required:    true,
						},
					},
				},
			},
		},
		{
			Name:        "vote",
			Description: "懲罰投票提名",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "nominate",
					Description: "提名下次投票的選項",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "content",
							Description: "提名內容",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "revoke",
					Description: "撤回提名",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "id",
							Description: "提名代號 (🇦-🇹)",
							Required:    true,
						},
					},
				},
			},
		},
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx := context.Background()
	data := i.ApplicationCommandData()
	user := interactionUser(i)
	if user == "" {
		return
	}

	var r reply
	switch data.Name {
	case "coin":
		r = b.coinReply(ctx, user, stringOption(data.Options, "channel"))
	case "give":
		r = b.giveReply(ctx, user, stringOption(data.Options, "channel"), intOption(data.Options, "amount"))
	case "link":
		r = b.linkReply(ctx, user, stringOption(data.Options, "channel"))
	case "unlink":
		r = b.unlinkReply(ctx, user)
	case "purchase":
		r = b.purchaseReply(ctx, user, data.Options)
	case "vote":
		r = b.voteReply(ctx, user, data.Options)
	default:
		return
	}

	if err := respond(s, i, r); err != nil {
		slog.Error("Failed to respond to interaction", "command", data.Name, "error", err)
	}
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, r reply) error {
	data := &discordgo.InteractionResponseData{Content: r.content}
	if r.ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func interactionUser(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func stringOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range opts {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

func intOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) int64 {
	for _, opt := range opts {
		if opt.Name == name {
			return opt.IntValue()
		}
	}
	return 0
}
