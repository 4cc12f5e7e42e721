package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/champsing/mercuryland/internal/domain"
)

// PenaltyRepo implements domain.PenaltyRepository.
type PenaltyRepo struct {
	pool *pgxpool.Pool
}

func NewPenaltyRepo(pool *pgxpool.Pool) *PenaltyRepo {
	return &PenaltyRepo{pool: pool}
}

func scanPenalty(row pgx.Row) (*domain.Penalty, error) {
	var (
		p       domain.Penalty
		history []byte
	)
	err := row.Scan(&p.ID, &p.Date, &p.Name, &p.Detail, &p.State, &history)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPenaltyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan penalty: %w", err)
	}
	if err := json.Unmarshal(history, &p.History); err != nil {
		return nil, fmt.Errorf("failed to decode penalty history: %w", err)
	}
	return &p, nil
}

func (r *PenaltyRepo) List(ctx context.Context) ([]domain.Penalty, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, date, name, detail, state, history FROM penalties ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query penalties: %w", err)
	}
	defer rows.Close()

	var penalties []domain.Penalty
	for rows.Next() {
		p, err := scanPenalty(rows)
		if err != nil {
			return nil, err
		}
		penalties = append(penalties, *p)
	}
	return penalties, rows.Err()
}

func (r *PenaltyRepo) Get(ctx context.Context, id int64) (*domain.Penalty, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, date, name, detail, state, history FROM penalties WHERE id = $1`, id)
	return scanPenalty(row)
}

func (r *PenaltyRepo) Insert(ctx context.Context, p *domain.Penalty) (int64, error) {
	history, err := json.Marshal(p.History)
	if err != nil {
		return 0, fmt.Errorf("failed to encode penalty history: %w", err)
	}

	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO penalties (date, name, detail, state, history)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		p.Date, p.Name, p.Detail, p.State, history).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert penalty: %w", err)
	}
	return id, nil
}

// UpdateState transitions the penalty and appends the transition to the
// history column in the same statement.
func (r *PenaltyRepo) UpdateState(ctx context.Context, id int64, state domain.PenaltyState, at time.Time) error {
	event, err := json.Marshal(domain.PenaltyEvent{State: state, Date: at})
	if err != nil {
		return fmt.Errorf("failed to encode penalty event: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE penalties SET state = $2, history = history || $3::jsonb WHERE id = $1`,
		id, state, event)
	if err != nil {
		return fmt.Errorf("failed to update penalty state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPenaltyNotFound
	}
	return nil
}

func (r *PenaltyRepo) UpdateDetail(ctx context.Context, id int64, detail string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE penalties SET detail = $2 WHERE id = $1`, id, detail)
	if err != nil {
		return fmt.Errorf("failed to update penalty detail: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPenaltyNotFound
	}
	return nil
}
