// Package adminkeys provides the PostgreSQL-backed repository for
// administrator escrow keys. Keys are deactivated, never deleted.
package adminkeys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/verarta/artledger/internal/dbx"
	"github.com/verarta/artledger/internal/ledgererr"
	"github.com/verarta/artledger/internal/server/models"
)

// PostgresRepository implements admin key storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, k *models.AdminKey) error {
	query := `
		INSERT INTO admin_keys (key_id, admin_account, public_key, description, added_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		k.KeyID, k.AdminAccount, k.PublicKey, k.Description, k.AddedAt, k.IsActive)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, keyID uint64) (*models.AdminKey, error) {
	query := `
		SELECT key_id, admin_account, public_key, description, added_at, is_active
		FROM admin_keys WHERE key_id=$1
	`
	k := &models.AdminKey{}
	err := r.db.QueryRowContext(ctx, query, keyID).Scan(
		&k.KeyID, &k.AdminAccount, &k.PublicKey, &k.Description, &k.AddedAt, &k.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledgererr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select admin key: %w", err)
	}
	return k, nil
}

func (r *PostgresRepository) NextKeyID(ctx context.Context) (uint64, error) {
	query := `SELECT COALESCE(MAX(key_id), 0) + 1 FROM admin_keys`
	var next uint64
	if err := r.db.QueryRowContext(ctx, query).Scan(&next); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return next, nil
}

func (r *PostgresRepository) PublicKeyExists(ctx context.Context, publicKey string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM admin_keys WHERE public_key=$1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, publicKey).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) CountActive(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM admin_keys WHERE is_active`
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) ListActive(ctx context.Context) ([]*models.AdminKey, error) {
	query := `
		SELECT key_id, admin_account, public_key, description, added_at, is_active
		FROM admin_keys WHERE is_active ORDER BY key_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select admin keys: %w", err)
	}
	defer rows.Close()

	var result []*models.AdminKey
	for rows.Next() {
		k := &models.AdminKey{}
		if err := rows.Scan(&k.KeyID, &k.AdminAccount, &k.PublicKey, &k.Description, &k.AddedAt, &k.IsActive); err != nil {
			return nil, err
		}
		result = append(result, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) HasActiveForAccount(ctx context.Context, adminAccount string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM admin_keys WHERE admin_account=$1 AND is_active)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, adminAccount).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, keyID uint64) error {
	query := `UPDATE admin_keys SET is_active=FALSE WHERE key_id=$1`
	res, err := r.db.ExecContext(ctx, query, keyID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return ledgererr.ErrNotFound
	}
	return nil
}
