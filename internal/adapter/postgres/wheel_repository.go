package postgres

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/champsing/mercuryland/internal/domain"
)

// WheelRepo implements domain.WheelRepository.
type WheelRepo struct {
	pool *pgxpool.Pool
}

func NewWheelRepo(pool *pgxpool.Pool) *WheelRepo {
	return &WheelRepo{pool: pool}
}

func (r *WheelRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Wheel, error) {
	var (
		w       domain.Wheel
		entries []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, secret, entries, outcome, updated_at FROM wheels WHERE id = $1`, id).
		Scan(&w.ID, &w.Secret, &entries, &w.Outcome, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWheelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wheel: %w", err)
	}
	if err := json.Unmarshal(entries, &w.Entries); err != nil {
		return nil, fmt.Errorf("failed to decode wheel entries: %w", err)
	}
	return &w, nil
}

func (r *WheelRepo) Create(ctx context.Context, w *domain.Wheel) error {
	entries, err := json.Marshal(w.Entries)
	if err != nil {
		return fmt.Errorf("failed to encode wheel entries: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO wheels (id, secret, entries, outcome, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		w.ID, w.Secret, entries, w.Outcome, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert wheel: %w", err)
	}
	return nil
}

func (r *WheelRepo) UpdateEntries(ctx context.Context, id uuid.UUID, entries []domain.WheelEntry, at time.Time) error {
	encoded, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode wheel entries: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE wheels SET entries = $2, updated_at = $3 WHERE id = $1`,
		id, encoded, at)
	if err != nil {
		return fmt.Errorf("failed to update wheel entries: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWheelNotFound
	}
	return nil
}

// SubmitOutcome records the spin result. The secret is compared in constant
// time before any write happens.
func (r *WheelRepo) SubmitOutcome(ctx context.Context, id uuid.UUID, secret, outcome string, at time.Time) error {
	wheel, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(wheel.Secret), []byte(secret)) != 1 {
		return domain.ErrWrongSecret
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE wheels SET outcome = $2, updated_at = $3 WHERE id = $1 AND secret = $4`,
		id, outcome, at, secret)
	if err != nil {
		return fmt.Errorf("failed to submit wheel outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWheelNotFound
	}
	return nil
}
