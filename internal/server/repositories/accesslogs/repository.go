package accesslogs

import (
	"context"

	"github.com/verarta/artledger/internal/server/models"
)

type Repository interface {
	// NextLogID returns max(log_id)+1, starting at 1, read inside the
	// enclosing transaction.
	NextLogID(ctx context.Context) (uint64, error)
	Create(ctx context.Context, l *models.AccessLog) error
	ListByFile(ctx context.Context, fileID uint64) ([]*models.AccessLog, error)
}
