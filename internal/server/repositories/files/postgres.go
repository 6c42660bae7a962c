// Package files provides the PostgreSQL-backed repository for file records.
// The escrow set (admin_encrypted_deks) is stored as a JSONB array so its
// order is preserved exactly as issued.
package files

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/verarta/artledger/internal/dbx"
	"github.com/verarta/artledger/internal/ledgererr"
	"github.com/verarta/artledger/internal/server/models"
)

// PostgresRepository implements file storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `file_id, artwork_id, owner, filename_cipher, mime_type, file_size, content_hash,
	user_encrypted_dek, admin_encrypted_deks, iv, auth_tag, is_thumbnail,
	total_chunks, uploaded_chunks, upload_complete, created_at, completed_at`

func (r *PostgresRepository) Create(ctx context.Context, f *models.File) error {
	// A nil slice marshals to the jsonb scalar null, which the || append
	// operator treats as a one-element operand. The column must always hold
	// an array, so an empty escrow set is stored as [].
	escrow := f.AdminEncryptedDEKs
	if escrow == nil {
		escrow = []string{}
	}
	deks, err := json.Marshal(escrow)
	if err != nil {
		return fmt.Errorf("failed to encode escrow set: %w", err)
	}
	query := `
		INSERT INTO files (` + fileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = r.db.ExecContext(ctx, query,
		f.FileID, f.ArtworkID, f.Owner, f.FilenameCipher, f.MimeType, f.FileSize, f.ContentHash,
		f.UserEncryptedDEK, deks, f.IV, f.AuthTag, f.IsThumbnail,
		f.TotalChunks, f.UploadedChunks, f.UploadComplete, f.CreatedAt, f.CompletedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, fileID uint64) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE file_id=$1`
	f, err := scanFile(r.db.QueryRowContext(ctx, query, fileID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledgererr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) ListByArtwork(ctx context.Context, artworkID uint64) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE artwork_id=$1 ORDER BY file_id`
	rows, err := r.db.QueryContext(ctx, query, artworkID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) IncrementUploadedChunks(ctx context.Context, fileID uint64) error {
	query := `UPDATE files SET uploaded_chunks = uploaded_chunks + 1 WHERE file_id=$1`
	return r.execOne(ctx, query, fileID)
}

func (r *PostgresRepository) MarkComplete(ctx context.Context, fileID uint64, totalChunks uint32, completedAt int64) error {
	query := `UPDATE files SET total_chunks=$2, upload_complete=TRUE, completed_at=$3 WHERE file_id=$1`
	return r.execOne(ctx, query, fileID, totalChunks, completedAt)
}

func (r *PostgresRepository) Transfer(ctx context.Context, fileID uint64, newOwner, newUserEncryptedDEK, newAuthTag string) error {
	query := `UPDATE files SET owner=$2, user_encrypted_dek=$3, auth_tag=$4 WHERE file_id=$1`
	return r.execOne(ctx, query, fileID, newOwner, newUserEncryptedDEK, newAuthTag)
}

func (r *PostgresRepository) AppendAdminDEK(ctx context.Context, fileID uint64, encryptedDEK string) error {
	dek, err := json.Marshal(encryptedDEK)
	if err != nil {
		return fmt.Errorf("failed to encode escrow entry: %w", err)
	}
	query := `UPDATE files SET admin_encrypted_deks = admin_encrypted_deks || $2::jsonb WHERE file_id=$1`
	return r.execOne(ctx, query, fileID, dek)
}

func (r *PostgresRepository) Delete(ctx context.Context, fileID uint64) error {
	query := `DELETE FROM files WHERE file_id=$1`
	return r.execOne(ctx, query, fileID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*models.File, error) {
	f := &models.File{}
	var deks []byte
	if err := row.Scan(
		&f.FileID, &f.ArtworkID, &f.Owner, &f.FilenameCipher, &f.MimeType, &f.FileSize, &f.ContentHash,
		&f.UserEncryptedDEK, &deks, &f.IV, &f.AuthTag, &f.IsThumbnail,
		&f.TotalChunks, &f.UploadedChunks, &f.UploadComplete, &f.CreatedAt, &f.CompletedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(deks, &f.AdminEncryptedDEKs); err != nil {
		return nil, fmt.Errorf("failed to decode escrow set: %w", err)
	}
	return f, nil
}

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
