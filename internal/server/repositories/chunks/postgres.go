// Package chunks provides the PostgreSQL-backed repository for chunk
// records. Payloads are opaque base64 ciphertext and are excluded from the
// manifest query to keep cascades and listings cheap.
package chunks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/verarta/artledger/internal/dbx"
	"github.com/verarta/artledger/internal/ledgererr"
	"github.com/verarta/artledger/internal/server/models"
)

// PostgresRepository implements chunk storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Chunk) error {
	query := `
		INSERT INTO chunks (chunk_id, file_id, owner, chunk_index, payload, chunk_size, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ChunkID, c.FileID, c.Owner, c.ChunkIndex, c.Payload, c.ChunkSize, c.UploadedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, chunkID uint64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM chunks WHERE chunk_id=$1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, chunkID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) ExistsAtIndex(ctx context.Context, fileID uint64, chunkIndex uint32) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM chunks WHERE file_id=$1 AND chunk_index=$2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, fileID, chunkIndex).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) ListByFile(ctx context.Context, fileID uint64) ([]*models.Chunk, error) {
	query := `
		SELECT chunk_id, file_id, owner, chunk_index, chunk_size, uploaded_at
		FROM chunks WHERE file_id=$1 ORDER BY chunk_index
	`
	rows, err := r.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to select chunks: %w", err)
	}
	defer rows.Close()

	var result []*models.Chunk
	for rows.Next() {
		c := &models.Chunk{}
		if err := rows.Scan(&c.ChunkID, &c.FileID, &c.Owner, &c.ChunkIndex, &c.ChunkSize, &c.UploadedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetPayload(ctx context.Context, chunkID uint64) (string, error) {
	query := `SELECT payload FROM chunks WHERE chunk_id=$1`
	var payload string
	err := r.db.QueryRowContext(ctx, query, chunkID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ledgererr.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to select chunk payload: %w", err)
	}
	return payload, nil
}

func (r *PostgresRepository) DeleteByFile(ctx context.Context, fileID uint64) (int64, error) {
	query := `DELETE FROM chunks WHERE file_id=$1`
	res, err := r.db.ExecContext(ctx, query, fileID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
