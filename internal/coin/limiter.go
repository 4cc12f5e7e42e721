package coin

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// spamWindow is the minimum gap between two accepted messages from the
	// same author.
	spamWindow = 30 * time.Second
	// dayLength is the quota window. The anchor advances in fixed steps of
	// this size.
	dayLength = 24 * time.Hour
)

// suppressReason explains why an evaluation yielded zero coins.
type suppressReason string

const (
	reasonAwarded   suppressReason = "awarded"
	reasonWrongKind suppressReason = "wrong_kind"
	reasonSpam      suppressReason = "spam"
	reasonQuota     suppressReason = "quota_exhausted"
)

// Limiter decides how many coins a chat event earns, enforcing a per-author
// anti-spam cooldown and a rolling daily quota.
//
// State is process-lifetime only: a restart forgets every cooldown and quota.
// The cooldown and quota maps grow with the number of distinct authors seen
// and are never evicted, which is fine for a community-sized audience.
//
// Events for a single author must arrive in non-decreasing timestamp order;
// the limiter does not reorder.
type Limiter struct {
	mu       sync.Mutex
	anchor   time.Time            // start of the current quota day
	quota    map[string]int64     // author -> remaining coin for the day
	cooldown map[string]time.Time // author -> last accepted event time
}

// NewLimiter creates a Limiter whose first quota day starts now.
func NewLimiter(clock clockwork.Clock) *Limiter {
	return &Limiter{
		anchor:   clock.Now(),
		quota:    make(map[string]int64),
		cooldown: make(map[string]time.Time),
	}
}

// Evaluate returns the coins to award for one chat event, zero or more.
// Only text messages touch any state; every other event kind returns 0 and
// leaves cooldown and quota untouched. The caller persists the award.
func (l *Limiter) Evaluate(authorID string, isSponsor bool, eventKind string, eventTime time.Time) int64 {
	award, _ := l.evaluate(authorID, isSponsor, eventKind, eventTime)
	return award
}

func (l *Limiter) evaluate(authorID string, isSponsor bool, eventKind string, eventTime time.Time) (int64, suppressReason) {
	if eventKind != EventKindTextMessage {
		return 0, reasonWrongKind
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// A burst of rapid messages all compare against the original accepted
	// timestamp; suppressed events do not slide the window.
	if last, ok := l.cooldown[authorID]; ok && eventTime.Before(last.Add(spamWindow)) {
		return 0, reasonSpam
	}
	l.cooldown[authorID] = eventTime

	l.rollover(eventTime)

	remaining, seen := l.quota[authorID]
	if !seen {
		remaining = dailyQuota(isSponsor)
	}

	base := perMessageCoin(isSponsor)
	if !seen {
		base = firstMessageCoin(isSponsor)
	}

	award := min(base, remaining)
	l.quota[authorID] = remaining - award

	if award == 0 {
		return 0, reasonQuota
	}
	return award, reasonAwarded
}

// rollover advances the day anchor until it covers eventTime, clearing all
// quota entries when a boundary is crossed. The loop keeps a multi-day idle
// gap from causing one spurious reset per subsequent event.
func (l *Limiter) rollover(eventTime time.Time) {
	crossed := false
	for eventTime.After(l.anchor.Add(dayLength)) {
		l.anchor = l.anchor.Add(dayLength)
		crossed = true
	}
	if crossed {
		clear(l.quota)
	}
}
