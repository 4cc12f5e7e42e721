package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/champsing/mercuryland/internal/coin"
	"github.com/champsing/mercuryland/internal/domain"
)

type reply struct {
	content   string
	ephemeral bool
}

func userError(content string) reply {
	return reply{content: content, ephemeral: true}
}

func (b *Bot) isAdmin(userID string) bool {
	return b.adminIDs[userID]
}

// coinReply answers /coin. An unknown channel or an unlinked account reads as
// a zero balance, not an error.
func (b *Bot) coinReply(ctx context.Context, userID, channel string) reply {
	var (
		account *domain.CoinAccount
		err     error
	)
	if channel != "" {
		account, err = b.ledger.ByYouTube(ctx, channel)
	} else {
		account, err = b.ledger.ByDiscord(ctx, userID)
	}

	var balance int64
	switch {
	case err == nil:
		balance = account.Coin
	case errors.Is(err, domain.ErrAccountNotFound):
		balance = 0
	default:
		slog.Error("Failed to look up balance", "user", userID, "error", err)
		return userError("查詢失敗，請稍後再試。")
	}

	return reply{content: fmt.Sprintf("您目前有 %d 水星幣。", balance)}
}

// giveReply answers /give (admin only).
func (b *Bot) giveReply(ctx context.Context, userID, channel string, amount int64) reply {
	if !b.isAdmin(userID) {
		return userError("您没有权限")
	}
	if channel == "" || amount <= 0 {
		return userError("頻道 ID 與數量皆為必填，且數量需為正數。")
	}

	if _, err := b.ledger.Deposit(ctx, channel, "", amount, b.clock.Now()); err != nil {
		slog.Error("Failed to credit coins", "channel", channel, "error", err)
		return userError("添加失敗，請稍後再試。")
	}
	return reply{content: fmt.Sprintf("成功给%s添加了%d水星币", channel, amount)}
}

// linkReply answers /link. The admin verifies channel ownership out of band;
// the command only records the association.
func (b *Bot) linkReply(ctx context.Context, userID, channel string) reply {
	if _, err := b.ledger.ByDiscord(ctx, userID); err == nil {
		return userError("您已經將本帳號連結到某個 YouTube 頻道了。\n如要綁定其他 YouTube 頻道，請先使用 /unlink 解除連結。")
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		slog.Error("Failed to check existing link", "user", userID, "error", err)
		return userError("連結失敗，請稍後再試。")
	}

	err := b.ledger.Link(ctx, channel, userID)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return userError("找不到這個 YouTube 頻道。頻道需要先在聊天室發言獲得水星幣才能連結。")
	case errors.Is(err, domain.ErrAlreadyLinked):
		return userError("這個 YouTube 頻道已被其他 Discord 帳號連結。")
	case err != nil:
		slog.Error("Failed to link account", "user", userID, "channel", channel, "error", err)
		return userError("連結失敗，請稍後再試。")
	}
	return reply{content: fmt.Sprintf("連結成功：<@%s> ↔ %s", userID, channel)}
}

// unlinkReply answers /unlink.
func (b *Bot) unlinkReply(ctx context.Context, userID string) reply {
	err := b.ledger.Unlink(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return userError("您尚未連結任何 YouTube 頻道。")
	case err != nil:
		slog.Error("Failed to unlink account", "user", userID, "error", err)
		return userError("解除連結失敗，請稍後再試。")
	}
	return reply{content: "已解除連結。"}
}

// purchaseReply answers /purchase booster|overtime.
func (b *Bot) purchaseReply(ctx context.Context, userID string, opts []*discordgo.ApplicationCommandInteractionDataOption) reply {
	if len(opts) == 0 {
		return userError("未知的兌換項目。")
	}
	sub := opts[0]

	var (
		receipt *coin.Receipt
		err     error
	)
	switch sub.Name {
	case "booster":
		receipt, err = b.exchange.BuyBooster(ctx, userID, intOption(sub.Options, "level"), stringOption(sub.Options, "content"))
	case "overtime":
		receipt, err = b.exchange.BuyOvertime(ctx, userID, intOption(sub.Options, "hours"), stringOption(sub.Options, "content"))
	default:
		return userError("未知的兌換項目。")
	}

	switch {
	case errors.Is(err, coin.ErrNotLinked):
		return userError("請先使用 /link 連結您的 YouTube 頻道。")
	case errors.Is(err, coin.ErrInsufficientCoin):
		return userError("水星幣不足。")
	case errors.Is(err, coin.ErrInvalidLevel):
		return userError("倍率需在 2 到 9 之間。")
	case errors.Is(err, coin.ErrInvalidHours):
		return userError("小時數需在 1 到 24 之間。")
	case err != nil:
		slog.Error("Purchase failed", "user", userID, "error", err)
		return userError("兌換失敗，請稍後再試。")
	}

	return reply{content: fmt.Sprintf("兌換成功，花費 %d 水星幣，剩餘 %d。", receipt.Cost, receipt.Remaining)}
}

// voteReply answers /vote nominate|revoke.
func (b *Bot) voteReply(ctx context.Context, userID string, opts []*discordgo.ApplicationCommandInteractionDataOption) reply {
	if len(opts) == 0 {
		return userError("未知的投票操作。")
	}
	sub := opts[0]

	switch sub.Name {
	case "nominate":
		content := stringOption(sub.Options, "content")
		if content == "" {
			return userError("提名內容不能為空。")
		}
		flag, err := b.ballot.Nominate(content, userID)
		if err != nil {
			return userError(fmt.Sprintf("提名失败: %s", err))
		}
		b.publishBallot(ctx)
		return reply{content: fmt.Sprintf("提名成功 (%s)", flag)}

	case "revoke":
		if err := b.ballot.Revoke(stringOption(sub.Options, "id"), userID, b.isAdmin(userID)); err != nil {
			return userError(fmt.Sprintf("撤回失败: %s", err))
		}
		b.publishBallot(ctx)
		return reply{content: "撤回成功"}

	default:
		return userError("未知的投票操作。")
	}
}

// publishBallot posts the updated nomination list to the public channel.
func (b *Bot) publishBallot(ctx context.Context) {
	if b.session == nil || b.publicChannelID == "" {
		return
	}
	if err := b.Notifier().Announce(ctx, b.ballot.Render()); err != nil {
		slog.Error("Failed to publish ballot", "error", err)
	}
}
