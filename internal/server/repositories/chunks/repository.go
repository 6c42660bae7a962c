package chunks

import (
	"context"

	"github.com/verarta/artledger/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Chunk) error
	Exists(ctx context.Context, chunkID uint64) (bool, error)
	// ExistsAtIndex reports whether a chunk already claims the
	// (file_id, chunk_index) position.
	ExistsAtIndex(ctx context.Context, fileID uint64, chunkIndex uint32) (bool, error)
	// ListByFile returns the chunk manifest for a file (payloads omitted),
	// ordered by chunk_index.
	ListByFile(ctx context.Context, fileID uint64) ([]*models.Chunk, error)
	GetPayload(ctx context.Context, chunkID uint64) (string, error)
	// DeleteByFile removes every chunk of the file and returns how many
	// records were deleted.
	DeleteByFile(ctx context.Context, fileID uint64) (int64, error)
}
