package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/champsing/mercuryland/internal/domain"
)

const ledgerColumns = `id, discord_id, coin, display, updated_at`

// LedgerRepo implements domain.LedgerRepository backed by PostgreSQL.
// Every mutation is a single atomic statement, so concurrent awards to the
// same account serialize on the row.
type LedgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

func scanAccount(row pgx.Row) (*domain.CoinAccount, error) {
	var a domain.CoinAccount
	err := row.Scan(&a.ID, &a.DiscordID, &a.Coin, &a.Display, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan coin account: %w", err)
	}
	return &a, nil
}

func (r *LedgerRepo) ByYouTube(ctx context.Context, channelID string) (*domain.CoinAccount, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+ledgerColumns+` FROM coin_accounts WHERE id = $1`, channelID)
	return scanAccount(row)
}

func (r *LedgerRepo) ByDiscord(ctx context.Context, discordID string) (*domain.CoinAccount, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+ledgerColumns+` FROM coin_accounts WHERE discord_id = $1 AND discord_id <> ''`, discordID)
	return scanAccount(row)
}

func (r *LedgerRepo) Deposit(ctx context.Context, channelID, display string, amount int64, at time.Time) (*domain.CoinAccount, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO coin_accounts (id, coin, display, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			coin = coin_accounts.coin + EXCLUDED.coin,
			display = CASE WHEN EXCLUDED.display <> '' THEN EXCLUDED.display ELSE coin_accounts.display END,
			updated_at = EXCLUDED.updated_at
		RETURNING `+ledgerColumns,
		channelID, amount, display, at)
	account, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("failed to deposit: %w", err)
	}
	return account, nil
}

func (r *LedgerRepo) Withdraw(ctx context.Context, channelID string, amount int64, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE coin_accounts
		SET coin = coin - $2, updated_at = $3
		WHERE id = $1 AND coin >= $2`,
		channelID, amount, at)
	if err != nil {
		return false, fmt.Errorf("failed to withdraw: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *LedgerRepo) Link(ctx context.Context, channelID, discordID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE coin_accounts SET discord_id = $2 WHERE id = $1 AND discord_id = ''`,
		channelID, discordID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrAlreadyLinked
	}
	if err != nil {
		return fmt.Errorf("failed to link account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the channel row is missing or it is already linked.
		if _, lookupErr := r.ByYouTube(ctx, channelID); lookupErr != nil {
			return lookupErr
		}
		return domain.ErrAlreadyLinked
	}
	return nil
}

func (r *LedgerRepo) Unlink(ctx context.Context, discordID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE coin_accounts SET discord_id = '' WHERE discord_id = $1 AND discord_id <> ''`,
		discordID)
	if err != nil {
		return fmt.Errorf("failed to unlink account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *LedgerRepo) Leaderboard(ctx context.Context, limit int) ([]domain.CoinAccount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ledgerColumns+` FROM coin_accounts ORDER BY coin DESC, id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var accounts []domain.CoinAccount
	for rows.Next() {
		var a domain.CoinAccount
		if err := rows.Scan(&a.ID, &a.DiscordID, &a.Coin, &a.Display, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
