package files

import (
	"context"

	"github.com/verarta/artledger/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, f *models.File) error
	Get(ctx context.Context, fileID uint64) (*models.File, error)
	// ListByArtwork scans the by-artwork secondary index in file_id order.
	ListByArtwork(ctx context.Context, artworkID uint64) ([]*models.File, error)
	IncrementUploadedChunks(ctx context.Context, fileID uint64) error
	MarkComplete(ctx context.Context, fileID uint64, totalChunks uint32, completedAt int64) error
	// Transfer replaces the owner, the user-wrapped DEK, and the auth tag in
	// one record write.
	Transfer(ctx context.Context, fileID uint64, newOwner, newUserEncryptedDEK, newAuthTag string) error
	AppendAdminDEK(ctx context.Context, fileID uint64, encryptedDEK string) error
	Delete(ctx context.Context, fileID uint64) error
}
