package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

// CoinAccount is one row of the Mercury Coin ledger. The primary key is the
// YouTube channel ID; a Discord account may be linked to it later.
type CoinAccount struct {
	ID        string    `json:"id"`
	DiscordID string    `json:"discord_id,omitempty"`
	Coin      int64     `json:"coin"`
	Display   string    `json:"display"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PenaltyState tracks how far along a penalty is.
type PenaltyState int

const (
	PenaltyInactive PenaltyState = iota
	PenaltyNotStarted
	PenaltyInProgress
	PenaltyBarelyDone
	PenaltyCompleted
)

func (s PenaltyState) Valid() bool {
	return s >= PenaltyInactive && s <= PenaltyCompleted
}

// PenaltyEvent is one entry of a penalty's state history.
type PenaltyEvent struct {
	State PenaltyState `json:"state"`
	Date  time.Time    `json:"date"`
}

// Penalty is a stream-penalty entry shown on the dashboard wheel.
type Penalty struct {
	ID      int64          `json:"id"`
	Date    time.Time      `json:"date"`
	Name    string         `json:"name"`
	Detail  string         `json:"detail"`
	State   PenaltyState   `json:"state"`
	History []PenaltyEvent `json:"history"`
}

// Video is one entry of the stream video log.
type Video struct {
	ID       int64     `json:"id"`
	Date     time.Time `json:"date"`
	Link     string    `json:"link"`
	Title    string    `json:"title"`
	Tags     []string  `json:"tags"`
	Duration string    `json:"duration"`
}

// Wheel is a penalty-wheel round: a set of candidate entries and, once spun,
// an outcome. The secret authorizes submissions from the wheel page.
type Wheel struct {
	ID        uuid.UUID    `json:"id"`
	Secret    string       `json:"-"`
	Entries   []WheelEntry `json:"entries"`
	Outcome   string       `json:"outcome,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// WheelEntry is a single wedge on the wheel.
type WheelEntry struct {
	Content string `json:"content"`
	Weight  int    `json:"weight"`
}

// ChatEvent is one normalized YouTube live-chat event fed to the accrual
// pipeline.
type ChatEvent struct {
	MessageID   string
	AuthorID    string
	AuthorName  string
	IsSponsor   bool
	Kind        string
	Message     string
	PublishedAt time.Time
}

// --- Repository interfaces ---

// LedgerRepository abstracts the coin ledger. All mutating operations are a
// single transactional read-modify-write per account.
type LedgerRepository interface {
	ByYouTube(ctx context.Context, channelID string) (*CoinAccount, error)
	ByDiscord(ctx context.Context, discordID string) (*CoinAccount, error)
	// Deposit credits amount to the account, creating it if absent.
	Deposit(ctx context.Context, channelID, display string, amount int64, at time.Time) (*CoinAccount, error)
	// Withdraw debits amount if the balance is sufficient; ok reports
	// whether the debit happened.
	Withdraw(ctx context.Context, channelID string, amount int64, at time.Time) (ok bool, err error)
	Link(ctx context.Context, channelID, discordID string) error
	Unlink(ctx context.Context, discordID string) error
	Leaderboard(ctx context.Context, limit int) ([]CoinAccount, error)
}

// PenaltyRepository abstracts penalty persistence.
type PenaltyRepository interface {
	List(ctx context.Context) ([]Penalty, error)
	Get(ctx context.Context, id int64) (*Penalty, error)
	Insert(ctx context.Context, p *Penalty) (int64, error)
	// UpdateState transitions a penalty and appends to its history.
	UpdateState(ctx context.Context, id int64, state PenaltyState, at time.Time) error
	UpdateDetail(ctx context.Context, id int64, detail string) error
}

// VideoRepository abstracts the video log.
type VideoRepository interface {
	List(ctx context.Context) ([]Video, error)
	Insert(ctx context.Context, v *Video) (int64, error)
	Update(ctx context.Context, v *Video) error
	Delete(ctx context.Context, id int64) error
}

// WheelRepository abstracts penalty-wheel rounds.
type WheelRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*Wheel, error)
	Create(ctx context.Context, w *Wheel) error
	UpdateEntries(ctx context.Context, id uuid.UUID, entries []WheelEntry, at time.Time) error
	SubmitOutcome(ctx context.Context, id uuid.UUID, secret, outcome string, at time.Time) error
}

// SettingRepository is a key/value store for dashboard settings.
type SettingRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

// WheelBroadcaster pushes wheel updates to connected dashboard clients.
type WheelBroadcaster interface {
	BroadcastWheel(id uuid.UUID, outcome string)
}
