package discord

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	errBallotFull       = errors.New("提名已滿")
	errAlreadyNominated = errors.New("您已提名過了")
	errDuplicateContent = errors.New("已有相同提名")
	errUnknownFlag      = errors.New("查無此提名")
	errNotNominator     = errors.New("只能撤回自己的提名")
)

const maxBallotOptions = 20

// flags are the regional indicator emojis 🇦..🇹, matching the reaction
// voting in the channel.
var flags = []string{
	"🇦", "🇧", "🇨", "🇩", "🇪", "🇫", "🇬", "🇭", "🇮", "🇯",
	"🇰", "🇱", "🇲", "🇳", "🇴", "🇵", "🇶", "🇷", "🇸", "🇹",
}

type voteOption struct {
	flag      string
	content   string
	nominator string
}

// Ballot is the in-memory nomination list for the next penalty vote. One
// nomination per user; contents are unique. State lives for the process
// lifetime, like the accrual limiter.
type Ballot struct {
	mu      sync.Mutex
	options map[string]voteOption
}

func NewBallot() *Ballot {
	return &Ballot{options: make(map[string]voteOption)}
}

// Nominate adds a new option and returns its flag.
func (b *Ballot) Nominate(content, userID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, opt := range b.options {
		if opt.nominator == userID {
			return "", errAlreadyNominated
		}
		if opt.content == content {
			return "", errDuplicateContent
		}
	}

	for _, flag := range flags {
		if _, taken := b.options[flag]; !taken {
			b.options[flag] = voteOption{flag: flag, content: content, nominator: userID}
			return flag, nil
		}
	}
	return "", errBallotFull
}

// Revoke removes an option. Only the nominator may revoke it, unless the
// caller is an admin.
func (b *Ballot) Revoke(flag, userID string, admin bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opt, ok := b.options[flag]
	if !ok {
		return errUnknownFlag
	}
	if !admin && opt.nominator != userID {
		return errNotNominator
	}

	delete(b.options, flag)
	return nil
}

// Render formats the ballot for the vote channel message.
func (b *Ballot) Render() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.options) == 0 {
		return "目前沒有提名。"
	}

	opts := make([]voteOption, 0, len(b.options))
	for _, opt := range b.options {
		opts = append(opts, opt)
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].flag < opts[j].flag })

	var sb strings.Builder
	sb.WriteString("下次懲罰投票提名:\n")
	for _, opt := range opts {
		fmt.Fprintf(&sb, "%s %s (提名人: <@%s>)\n", opt.flag, opt.content, opt.nominator)
	}
	return strings.TrimRight(sb.String(), "\n")
}
