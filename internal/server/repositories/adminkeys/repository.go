package adminkeys

import (
	"context"

	"github.com/verarta/artledger/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, k *models.AdminKey) error
	Get(ctx context.Context, keyID uint64) (*models.AdminKey, error)
	// NextKeyID returns max(key_id)+1 across all keys ever issued, starting
	// at 1. Read inside the enclosing transaction, so ids are never reused.
	NextKeyID(ctx context.Context) (uint64, error)
	// PublicKeyExists checks the key against every record ever issued,
	// active or not.
	PublicKeyExists(ctx context.Context, publicKey string) (bool, error)
	CountActive(ctx context.Context) (int, error)
	ListActive(ctx context.Context) ([]*models.AdminKey, error)
	// HasActiveForAccount reports whether the account holds at least one
	// currently active key.
	HasActiveForAccount(ctx context.Context, adminAccount string) (bool, error)
	Deactivate(ctx context.Context, keyID uint64) error
}
