// Package app is the application layer behind the web API. It is the only
// component that composes multiple domain collaborators.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/champsing/mercuryland/internal/domain"
	"github.com/champsing/mercuryland/internal/platform/errors"
)

const defaultLeaderboardSize = 50

// LeaderboardCache is the read-through cache in front of the ledger's
// leaderboard query. A (nil, nil) Get is a miss.
type LeaderboardCache interface {
	Get(ctx context.Context) ([]domain.CoinAccount, error)
	Set(ctx context.Context, accounts []domain.CoinAccount) error
}

type Service struct {
	penalties   domain.PenaltyRepository
	videos      domain.VideoRepository
	wheels      domain.WheelRepository
	settings    domain.SettingRepository
	ledger      domain.LedgerRepository
	cache       LeaderboardCache
	broadcaster domain.WheelBroadcaster
	clock       clockwork.Clock

	wheelGroup singleflight.Group
}

func NewService(
	penalties domain.PenaltyRepository,
	videos domain.VideoRepository,
	wheels domain.WheelRepository,
	settings domain.SettingRepository,
	ledger domain.LedgerRepository,
	cache LeaderboardCache,
	broadcaster domain.WheelBroadcaster,
	clock clockwork.Clock,
) *Service {
	return &Service{
		penalties:   penalties,
		videos:      videos,
		wheels:      wheels,
		settings:    settings,
		ledger:      ledger,
		cache:       cache,
		broadcaster: broadcaster,
		clock:       clock,
	}
}

// --- Penalties ---

func (s *Service) ListPenalties(ctx context.Context) ([]domain.Penalty, error) {
	return s.penalties.List(ctx)
}

// CreatePenalty inserts a new penalty in the not-started state with its first
// history entry.
func (s *Service) CreatePenalty(ctx context.Context, p *domain.Penalty) (int64, error) {
	if p.Name == "" {
		return 0, errors.ValidationError("penalty name is required")
	}
	if p.Date.IsZero() {
		p.Date = s.clock.Now()
	}

	p.State = domain.PenaltyNotStarted
	p.History = []domain.PenaltyEvent{{State: p.State, Date: s.clock.Now()}}
	return s.penalties.Insert(ctx, p)
}

// UpdatePenaltyState transitions a penalty; the transition is appended to its
// history.
func (s *Service) UpdatePenaltyState(ctx context.Context, id int64, state domain.PenaltyState) error {
	if !state.Valid() {
		return errors.ValidationError(fmt.Sprintf("invalid penalty state %d", state))
	}
	return s.penalties.UpdateState(ctx, id, state, s.clock.Now())
}

func (s *Service) UpdatePenaltyDetail(ctx context.Context, id int64, detail string) error {
	return s.penalties.UpdateDetail(ctx, id, detail)
}

// --- Videos ---

func (s *Service) ListVideos(ctx context.Context) ([]domain.Video, error) {
	return s.videos.List(ctx)
}

func (s *Service) CreateVideo(ctx context.Context, v *domain.Video) (int64, error) {
	if v.Link == "" || v.Title == "" {
		return 0, errors.ValidationError("video link and title are required")
	}
	if v.Date.IsZero() {
		v.Date = s.clock.Now()
	}
	return s.videos.Insert(ctx, v)
}

func (s *Service) UpdateVideo(ctx context.Context, v *domain.Video) error {
	if v.ID == 0 {
		return errors.ValidationError("video id is required")
	}
	return s.videos.Update(ctx, v)
}

func (s *Service) DeleteVideo(ctx context.Context, id int64) error {
	return s.videos.Delete(ctx, id)
}

// --- Wheels ---

func (s *Service) GetWheel(ctx context.Context, id uuid.UUID) (*domain.Wheel, error) {
	return s.wheels.Get(ctx, id)
}

// CreateWheel starts a new wheel round. Concurrent creations collapse into
// one round via singleflight, so two admin tabs cannot race two wheels into
// existence.
func (s *Service) CreateWheel(ctx context.Context, entries []domain.WheelEntry) (*domain.Wheel, error) {
	if len(entries) == 0 {
		return nil, errors.ValidationError("wheel needs at least one entry")
	}
	for _, e := range entries {
		if e.Content == "" || e.Weight <= 0 {
			return nil, errors.ValidationError("wheel entries need content and a positive weight")
		}
	}

	v, err, _ := s.wheelGroup.Do("create", func() (any, error) {
		wheel := &domain.Wheel{
			ID:        uuid.New(),
			Secret:    uuid.NewString(),
			Entries:   entries,
			UpdatedAt: s.clock.Now(),
		}
		if err := s.wheels.Create(ctx, wheel); err != nil {
			return nil, err
		}
		return wheel, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Wheel), nil
}

func (s *Service) UpdateWheelEntries(ctx context.Context, id uuid.UUID, entries []domain.WheelEntry) error {
	if len(entries) == 0 {
		return errors.ValidationError("wheel needs at least one entry")
	}
	return s.wheels.UpdateEntries(ctx, id, entries, s.clock.Now())
}

// SubmitWheelOutcome records a spin result and pushes it to every watching
// dashboard.
func (s *Service) SubmitWheelOutcome(ctx context.Context, id uuid.UUID, secret, outcome string) error {
	if outcome == "" {
		return errors.ValidationError("outcome is required")
	}
	if err := s.wheels.SubmitOutcome(ctx, id, secret, outcome, s.clock.Now()); err != nil {
		return err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastWheel(id, outcome)
	}
	return nil
}

// --- Settings ---

func (s *Service) GetSetting(ctx context.Context, key string) (string, error) {
	return s.settings.Get(ctx, key)
}

func (s *Service) SetSetting(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.ValidationError("setting key is required")
	}
	return s.settings.Set(ctx, key, value)
}

func (s *Service) AllSettings(ctx context.Context) (map[string]string, error) {
	return s.settings.All(ctx)
}

// --- Leaderboard ---

// Leaderboard returns the top accounts, served from the cache when fresh. A
// cache failure falls through to Postgres instead of failing the request.
func (s *Service) Leaderboard(ctx context.Context) ([]domain.CoinAccount, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			slog.Warn("Leaderboard cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	accounts, err := s.ledger.Leaderboard(ctx, defaultLeaderboardSize)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, accounts); err != nil {
			slog.Warn("Leaderboard cache write failed", "error", err)
		}
	}
	return accounts, nil
}
