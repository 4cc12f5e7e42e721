package coin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/champsing/mercuryland/internal/domain"
)

// --- Mocks ---

type mockLedger struct {
	accounts   map[string]*domain.CoinAccount // keyed by channel ID
	byDiscord  map[string]*domain.CoinAccount
	deposits   []int64
	depositErr error
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		accounts:  make(map[string]*domain.CoinAccount),
		byDiscord: make(map[string]*domain.CoinAccount),
	}
}

func (m *mockLedger) ByYouTube(_ context.Context, channelID string) (*domain.CoinAccount, error) {
	if a, ok := m.accounts[channelID]; ok {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *mockLedger) ByDiscord(_ context.Context, discordID string) (*domain.CoinAccount, error) {
	if a, ok := m.byDiscord[discordID]; ok {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *mockLedger) Deposit(_ context.Context, channelID, display string, amount int64, at time.Time) (*domain.CoinAccount, error) {
	if m.depositErr != nil {
		return nil, m.depositErr
	}
	a, ok := m.accounts[channelID]
	if !ok {
		a = &domain.CoinAccount{ID: channelID, Display: display}
		m.accounts[channelID] = a
	}
	a.Coin += amount
	a.UpdatedAt = at
	m.deposits = append(m.deposits, amount)
	return a, nil
}

func (m *mockLedger) Withdraw(_ context.Context, channelID string, amount int64, at time.Time) (bool, error) {
	a, ok := m.accounts[channelID]
	if !ok || a.Coin < amount {
		return false, nil
	}
	a.Coin -= amount
	a.UpdatedAt = at
	return true, nil
}

func (m *mockLedger) Link(context.Context, string, string) error   { return nil }
func (m *mockLedger) Unlink(context.Context, string) error         { return nil }
func (m *mockLedger) Leaderboard(context.Context, int) ([]domain.CoinAccount, error) {
	return nil, nil
}

type mockDeduper struct {
	seen map[string]bool
	err  error
}

func (m *mockDeduper) FirstSeen(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[id] {
		return false, nil
	}
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	m.seen[id] = true
	return true, nil
}

type mockAnnouncer struct {
	messages []string
}

func (m *mockAnnouncer) Announce(_ context.Context, content string) error {
	m.messages = append(m.messages, content)
	return nil
}

func textEvent(id, author string, at time.Time) domain.ChatEvent {
	return domain.ChatEvent{
		MessageID:   id,
		AuthorID:    author,
		AuthorName:  author,
		Kind:        EventKindTextMessage,
		PublishedAt: at,
	}
}

// --- Accruer ---

func TestAccruer_CreditsAward(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ledger := newMockLedger()
	acc := NewAccruer(NewLimiter(clock), ledger, &mockDeduper{})

	award, err := acc.HandleChatEvent(context.Background(), textEvent("m1", "U1", clock.Now()))
	require.NoError(t, err)
	assert.Equal(t, int64(10), award)
	assert.Equal(t, int64(10), ledger.accounts["U1"].Coin)
}

func TestAccruer_SkipsLedgerWriteOnZeroAward(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ledger := newMockLedger()
	acc := NewAccruer(NewLimiter(clock), ledger, &mockDeduper{})

	_, err := acc.HandleChatEvent(context.Background(), textEvent("m1", "U1", clock.Now()))
	require.NoError(t, err)

	// Spam: zero award, and no second deposit.
	award, err := acc.HandleChatEvent(context.Background(), textEvent("m2", "U1", clock.Now().Add(time.Second)))
	require.NoError(t, err)
	assert.Zero(t, award)
	assert.Len(t, ledger.deposits, 1)
}

func TestAccruer_DuplicateMessageIgnored(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ledger := newMockLedger()
	acc := NewAccruer(NewLimiter(clock), ledger, &mockDeduper{})

	_, err := acc.HandleChatEvent(context.Background(), textEvent("m1", "U1", clock.Now()))
	require.NoError(t, err)

	// Same message ID re-delivered a minute later: must not award again.
	award, err := acc.HandleChatEvent(context.Background(), textEvent("m1", "U1", clock.Now().Add(time.Minute)))
	require.NoError(t, err)
	assert.Zero(t, award)
	assert.Len(t, ledger.deposits, 1)
}

func TestAccruer_DedupeFailsOpen(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ledger := newMockLedger()
	acc := NewAccruer(NewLimiter(clock), ledger, &mockDeduper{err: errors.New("redis down")})

	award, err := acc.HandleChatEvent(context.Background(), textEvent("m1", "U1", clock.Now()))
	require.NoError(t, err)
	assert.Equal(t, int64(10), award)
}

func TestAccruer_LedgerErrorSurfaced(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ledger := newMockLedger()
	ledger.depositErr = errors.New("db down")
	acc := NewAccruer(NewLimiter(clock), ledger, &mockDeduper{})

	_, err := acc.HandleChatEvent(context.Background(), textEvent("m1", "U1", clock.Now()))
	assert.Error(t, err)
}

// --- Exchange ---

func linkedLedger(balance int64) *mockLedger {
	ledger := newMockLedger()
	account := &domain.CoinAccount{ID: "UCchannel", DiscordID: "D1", Coin: balance, Display: "user"}
	ledger.accounts["UCchannel"] = account
	ledger.byDiscord["D1"] = account
	return ledger
}

func TestExchange_BuyBooster(t *testing.T) {
	ledger := linkedLedger(500)
	announcer := &mockAnnouncer{}
	ex := NewExchange(ledger, announcer, clockwork.NewFakeClock())

	receipt, err := ex.BuyBooster(context.Background(), "D1", 3, "深蹲")
	require.NoError(t, err)
	assert.Equal(t, int64(100), receipt.Cost)
	assert.Equal(t, int64(400), ledger.accounts["UCchannel"].Coin)
	require.Len(t, announcer.messages, 1)
	assert.Contains(t, announcer.messages[0], "深蹲")
}

func TestExchange_BuyBooster_InvalidLevel(t *testing.T) {
	ex := NewExchange(linkedLedger(10000), &mockAnnouncer{}, clockwork.NewFakeClock())
	for _, level := range []int64{0, 1, 10} {
		_, err := ex.BuyBooster(context.Background(), "D1", level, "x")
		assert.ErrorIs(t, err, ErrInvalidLevel, "level %d", level)
	}
}

func TestExchange_BuyBooster_InsufficientBalance(t *testing.T) {
	ledger := linkedLedger(49)
	announcer := &mockAnnouncer{}
	ex := NewExchange(ledger, announcer, clockwork.NewFakeClock())

	_, err := ex.BuyBooster(context.Background(), "D1", 2, "x")
	assert.ErrorIs(t, err, ErrInsufficientCoin)
	assert.Equal(t, int64(49), ledger.accounts["UCchannel"].Coin)
	assert.Empty(t, announcer.messages)
}

func TestExchange_BuyBooster_NotLinked(t *testing.T) {
	ex := NewExchange(newMockLedger(), &mockAnnouncer{}, clockwork.NewFakeClock())
	_, err := ex.BuyBooster(context.Background(), "stranger", 2, "x")
	assert.ErrorIs(t, err, ErrNotLinked)
}

func TestExchange_BuyOvertime(t *testing.T) {
	ledger := linkedLedger(5000)
	ex := NewExchange(ledger, &mockAnnouncer{}, clockwork.NewFakeClock())

	receipt, err := ex.BuyOvertime(context.Background(), "D1", 3, "周末播")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), receipt.Cost)
	assert.Equal(t, int64(2000), ledger.accounts["UCchannel"].Coin)
}

func TestExchange_BuyOvertime_InvalidHours(t *testing.T) {
	ex := NewExchange(linkedLedger(100000), &mockAnnouncer{}, clockwork.NewFakeClock())
	for _, hours := range []int64{0, 25} {
		_, err := ex.BuyOvertime(context.Background(), "D1", hours, "x")
		assert.ErrorIs(t, err, ErrInvalidHours, "hours %d", hours)
	}
}
