package artworks

import (
	"context"

	"github.com/verarta/artledger/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Artwork) error
	Get(ctx context.Context, artworkID uint64) (*models.Artwork, error)
	UpdateCiphers(ctx context.Context, artworkID uint64, descriptionCipher, metadataCipher string) error
	SetOwner(ctx context.Context, artworkID uint64, owner string) error
	IncrementFileCount(ctx context.Context, artworkID uint64) error
	// DecrementFileCount lowers file_count by one, floored at zero.
	DecrementFileCount(ctx context.Context, artworkID uint64) error
	Delete(ctx context.Context, artworkID uint64) error
}
