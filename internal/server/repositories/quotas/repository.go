package quotas

import (
	"context"

	"github.com/verarta/artledger/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, account string) (*models.UsageQuota, error)
	Create(ctx context.Context, q *models.UsageQuota) error
	// Replace overwrites the whole record (limits and counters). The quota
	// engine mutates a copy of the record and writes it back inside the
	// enclosing transaction.
	Replace(ctx context.Context, q *models.UsageQuota) error
}
