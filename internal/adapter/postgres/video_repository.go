package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/champsing/mercuryland/internal/domain"
)

// VideoRepo implements domain.VideoRepository.
type VideoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) *VideoRepo {
	return &VideoRepo{pool: pool}
}

func (r *VideoRepo) List(ctx context.Context) ([]domain.Video, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, date, link, title, tags, duration FROM videos ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []domain.Video
	for rows.Next() {
		var v domain.Video
		if err := rows.Scan(&v.ID, &v.Date, &v.Link, &v.Title, &v.Tags, &v.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (r *VideoRepo) Insert(ctx context.Context, v *domain.Video) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO videos (date, link, title, tags, duration)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		v.Date, v.Link, v.Title, v.Tags, v.Duration).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert video: %w", err)
	}
	return id, nil
}

func (r *VideoRepo) Update(ctx context.Context, v *domain.Video) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE videos SET date = $2, link = $3, title = $4, tags = $5, duration = $6 WHERE id = $1`,
		v.ID, v.Date, v.Link, v.Title, v.Tags, v.Duration)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVideoNotFound
	}
	return nil
}

func (r *VideoRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVideoNotFound
	}
	return nil
}
