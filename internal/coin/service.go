package coin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/champsing/mercuryland/internal/domain"
	"github.com/champsing/mercuryland/internal/metrics"
)

var (
	ErrNotLinked        = errors.New("no coin account linked to this discord user")
	ErrInsufficientCoin = errors.New("insufficient coin balance")
	ErrInvalidLevel     = errors.New("booster level must be between 2 and 9")
	ErrInvalidHours     = errors.New("overtime hours must be between 1 and 24")
)

// Deduper reports whether a chat message ID is seen for the first time.
// YouTube chat pages can re-deliver messages across poll requests; without
// dedupe a re-delivered page would double-award.
type Deduper interface {
	FirstSeen(ctx context.Context, messageID string) (bool, error)
}

// Announcer posts a message to the public exchange channel.
type Announcer interface {
	Announce(ctx context.Context, content string) error
}

// Accruer feeds chat events through the limiter and persists nonzero awards
// to the ledger.
type Accruer struct {
	limiter *Limiter
	ledger  domain.LedgerRepository
	dedupe  Deduper
}

func NewAccruer(limiter *Limiter, ledger domain.LedgerRepository, dedupe Deduper) *Accruer {
	return &Accruer{limiter: limiter, ledger: ledger, dedupe: dedupe}
}

// HandleChatEvent evaluates one chat event and credits any award. The award
// is computed exactly once; only the ledger write can fail, so a retry by the
// caller would never double-apply.
func (a *Accruer) HandleChatEvent(ctx context.Context, ev domain.ChatEvent) (int64, error) {
	if ev.MessageID != "" && a.dedupe != nil {
		first, err := a.dedupe.FirstSeen(ctx, ev.MessageID)
		if err != nil {
			// Fail open: a Redis hiccup must not silence accrual. The
			// limiter's own cooldown still bounds double-awards.
			slog.Warn("Dedupe check failed, continuing", "message_id", ev.MessageID, "error", err)
		} else if !first {
			metrics.AccrualEventsTotal.WithLabelValues("duplicate").Inc()
			return 0, nil
		}
	}

	award, reason := a.limiter.evaluate(ev.AuthorID, ev.IsSponsor, ev.Kind, ev.PublishedAt)
	metrics.AccrualEventsTotal.WithLabelValues(string(reason)).Inc()

	if award == 0 {
		return 0, nil
	}

	if _, err := a.ledger.Deposit(ctx, ev.AuthorID, ev.AuthorName, award, ev.PublishedAt); err != nil {
		metrics.LedgerWriteErrors.Inc()
		return 0, fmt.Errorf("failed to credit award: %w", err)
	}

	metrics.CoinsAwardedTotal.Add(float64(award))
	slog.Debug("Coin awarded", "author", ev.AuthorID, "coin", award)
	return award, nil
}

// Receipt describes a completed exchange purchase.
type Receipt struct {
	ChannelID string
	Display   string
	Cost      int64
	Remaining int64
}

// Exchange handles coin-spending commands: penalty boosters and stream
// overtime.
type Exchange struct {
	ledger    domain.LedgerRepository
	announcer Announcer
	clock     clockwork.Clock
}

func NewExchange(ledger domain.LedgerRepository, announcer Announcer, clock clockwork.Clock) *Exchange {
	return &Exchange{ledger: ledger, announcer: announcer, clock: clock}
}

// BuyBooster debits the price of a level-N penalty booster from the account
// linked to discordID and announces the purchase.
func (e *Exchange) BuyBooster(ctx context.Context, discordID string, level int64, content string) (*Receipt, error) {
	cost, ok := BoosterCost(level)
	if !ok {
		return nil, ErrInvalidLevel
	}

	receipt, err := e.spend(ctx, discordID, cost, "booster")
	if err != nil {
		return nil, err
	}

	e.announce(ctx, fmt.Sprintf("惩罚加倍: %sx%d (来自%s)", content, level, receipt.Display))
	return receipt, nil
}

// BuyOvertime debits the price of N hours of stream overtime and announces
// the purchase.
func (e *Exchange) BuyOvertime(ctx context.Context, discordID string, hours int64, content string) (*Receipt, error) {
	cost, ok := OvertimeCost(hours)
	if !ok {
		return nil, ErrInvalidHours
	}

	receipt, err := e.spend(ctx, discordID, cost, "overtime")
	if err != nil {
		return nil, err
	}

	e.announce(ctx, fmt.Sprintf("直播加班: %s %d小时 (来自%s)", content, hours, receipt.Display))
	return receipt, nil
}

func (e *Exchange) spend(ctx context.Context, discordID string, cost int64, kind string) (*Receipt, error) {
	account, err := e.ledger.ByDiscord(ctx, discordID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		metrics.PurchasesTotal.WithLabelValues(kind, "not_linked").Inc()
		return nil, ErrNotLinked
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	ok, err := e.ledger.Withdraw(ctx, account.ID, cost, e.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to withdraw: %w", err)
	}
	if !ok {
		metrics.PurchasesTotal.WithLabelValues(kind, "insufficient").Inc()
		return nil, ErrInsufficientCoin
	}

	metrics.PurchasesTotal.WithLabelValues(kind, "ok").Inc()
	return &Receipt{ChannelID: account.ID, Display: account.Display, Cost: cost, Remaining: account.Coin - cost}, nil
}

func (e *Exchange) announce(ctx context.Context, content string) {
	if e.announcer == nil {
		return
	}
	if err := e.announcer.Announce(ctx, content); err != nil {
		slog.Error("Failed to announce purchase", "error", err)
	}
}
