// Package accesslogs provides the PostgreSQL-backed repository for the
// append-only administrator access log.
package accesslogs

import (
	"context"
	"fmt"

	"github.com/verarta/artledger/internal/dbx"
	"github.com/verarta/artledger/internal/server/models"
)

// PostgresRepository implements access log storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) NextLogID(ctx context.Context) (uint64, error) {
	query := `SELECT COALESCE(MAX(log_id), 0) + 1 FROM access_logs`
	var next uint64
	if err := r.db.QueryRowContext(ctx, query).Scan(&next); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return next, nil
}

func (r *PostgresRepository) Create(ctx context.Context, l *models.AccessLog) error {
	query := `
		INSERT INTO access_logs (log_id, admin_account, file_id, reason, accessed_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		l.LogID, l.AdminAccount, l.FileID, l.Reason, l.AccessedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByFile(ctx context.Context, fileID uint64) ([]*models.AccessLog, error) {
	query := `
		SELECT log_id, admin_account, file_id, reason, accessed_at
		FROM access_logs WHERE file_id=$1 ORDER BY log_id
	`
	rows, err := r.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to select access logs: %w", err)
	}
	defer rows.Close()

	var result []*models.AccessLog
	for rows.Next() {
		l := &models.AccessLog{}
		if err := rows.Scan(&l.LogID, &l.AdminAccount, &l.FileID, &l.Reason, &l.AccessedAt); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
