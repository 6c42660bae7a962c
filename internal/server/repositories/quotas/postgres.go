// Package quotas provides the PostgreSQL-backed repository for per-account
// usage quota records.
package quotas

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/verarta/artledger/internal/dbx"
	"github.com/verarta/artledger/internal/ledgererr"
	"github.com/verarta/artledger/internal/server/models"
)

// PostgresRepository implements quota storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, account string) (*models.UsageQuota, error) {
	query := `
		SELECT account, tier, daily_file_limit, daily_size_limit, daily_files_used, daily_size_used, daily_reset_at,
			weekly_file_limit, weekly_size_limit, weekly_files_used, weekly_size_used, weekly_reset_at
		FROM usage_quotas WHERE account=$1
	`
	q := &models.UsageQuota{}
	err := r.db.QueryRowContext(ctx, query, account).Scan(
		&q.Account, &q.Tier, &q.DailyFileLimit, &q.DailySizeLimit, &q.DailyFilesUsed, &q.DailySizeUsed, &q.DailyResetAt,
		&q.WeeklyFileLimit, &q.WeeklySizeLimit, &q.WeeklyFilesUsed, &q.WeeklySizeUsed, &q.WeeklyResetAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledgererr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select quota: %w", err)
	}
	return q, nil
}

func (r *PostgresRepository) Create(ctx context.Context, q *models.UsageQuota) error {
	query := `
		INSERT INTO usage_quotas (account, tier, daily_file_limit, daily_size_limit, daily_files_used, daily_size_used, daily_reset_at,
			weekly_file_limit, weekly_size_limit, weekly_files_used, weekly_size_used, weekly_reset_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		q.Account, q.Tier, q.DailyFileLimit, q.DailySizeLimit, q.DailyFilesUsed, q.DailySizeUsed, q.DailyResetAt,
		q.WeeklyFileLimit, q.WeeklySizeLimit, q.WeeklyFilesUsed, q.WeeklySizeUsed, q.WeeklyResetAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Replace(ctx context.Context, q *models.UsageQuota) error {
	query := `
		UPDATE usage_quotas SET tier=$2,
			daily_file_limit=$3, daily_size_limit=$4, daily_files_used=$5, daily_size_used=$6, daily_reset_at=$7,
			weekly_file_limit=$8, weekly_size_limit=$9, weekly_files_used=$10, weekly_size_used=$11, weekly_reset_at=$12
		WHERE account=$1
	`
	res, err := r.db.ExecContext(ctx, query,
		q.Account, q.Tier, q.DailyFileLimit, q.DailySizeLimit, q.DailyFilesUsed, q.DailySizeUsed, q.DailyResetAt,
		q.WeeklyFileLimit, q.WeeklySizeLimit, q.WeeklyFilesUsed, q.WeeklySizeUsed, q.WeeklyResetAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return ledgererr.ErrNotFound
	}
	return nil
}
