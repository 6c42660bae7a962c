// Package artworks provides the PostgreSQL-backed repository for artwork
// records.
package artworks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/verarta/artledger/internal/dbx"
	"github.com/verarta/artledger/internal/ledgererr"
	"github.com/verarta/artledger/internal/server/models"
)

// PostgresRepository implements artwork storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Artwork) error {
	query := `
		INSERT INTO artworks (artwork_id, owner, title_cipher, description_cipher, metadata_cipher, creator_public_key, created_at, file_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ArtworkID, a.Owner, a.TitleCipher, a.DescriptionCipher, a.MetadataCipher, a.CreatorPublicKey, a.CreatedAt, a.FileCount)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, artworkID uint64) (*models.Artwork, error) {
	query := `
		SELECT artwork_id, owner, title_cipher, description_cipher, metadata_cipher, creator_public_key, created_at, file_count
		FROM artworks WHERE artwork_id=$1
	`
	a := &models.Artwork{}
	err := r.db.QueryRowContext(ctx, query, artworkID).Scan(
		&a.ArtworkID, &a.Owner, &a.TitleCipher, &a.DescriptionCipher, &a.MetadataCipher, &a.CreatorPublicKey, &a.CreatedAt, &a.FileCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledgererr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select artwork: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) UpdateCiphers(ctx context.Context, artworkID uint64, descriptionCipher, metadataCipher string) error {
	query := `UPDATE artworks SET description_cipher=$2, metadata_cipher=$3 WHERE artwork_id=$1`
	return r.execOne(ctx, query, artworkID, descriptionCipher, metadataCipher)
}

func (r *PostgresRepository) SetOwner(ctx context.Context, artworkID uint64, owner string) error {
	query := `UPDATE artworks SET owner=$2 WHERE artwork_id=$1`
	return r.execOne(ctx, query, artworkID, owner)
}

func (r *PostgresRepository) IncrementFileCount(ctx context.Context, artworkID uint64) error {
	query := `UPDATE artworks SET file_count = file_count + 1 WHERE artwork_id=$1`
	return r.execOne(ctx, query, artworkID)
}

func (r *PostgresRepository) DecrementFileCount(ctx context.Context, artworkID uint64) error {
	query := `UPDATE artworks SET file_count = GREATEST(file_count - 1, 0) WHERE artwork_id=$1`
	return r.execOne(ctx, query, artworkID)
}

func (r *PostgresRepository) Delete(ctx context.Context, artworkID uint64) error {
	query := `DELETE FROM artworks WHERE artwork_id=$1`
	return r.execOne(ctx, query, artworkID)
}

// execOne runs a statement that must affect exactly one row; zero rows means
// the artwork is gone.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return ledgererr.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
