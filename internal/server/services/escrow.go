package services

import (
	"context"
	"fmt"

	"github.com/verarta/artledger/internal/ledgererr"
	"github.com/verarta/artledger/internal/logging"
	"github.com/verarta/artledger/internal/server/auth"
	"github.com/verarta/artledger/internal/server/models"
	"github.com/verarta/artledger/internal/server/repositories/repomanager"
)

// EscrowService owns the administrator key set and keeps every file's escrow
// set reconcilable with it. Escrow consistency cannot be atomic with key
// rotation (re-wrapping a DEK happens off-system), so the service offers a
// strict creation-time parity check plus a monotonic one-append catch-up;
// a file is fully consistent exactly when its escrow length equals the
// active-key count.
type EscrowService struct {
	store  repomanager.Store
	logger logging.Logger
	now    func() int64
}

func NewEscrowService(store repomanager.Store, logger logging.Logger) *EscrowService {
	return &EscrowService{
		store:  store,
		logger: logger.With("module", "escrow_service"),
		now:    unixNow,
	}
}

// AddAdminKeyParams registers one administrator escrow key.
type AddAdminKeyParams struct {
	AdminAccount string
	PublicKey    string
	Description  string
}

// AddAdminKey registers a new active administrator key.
// Privileged-service-only. Key ids are assigned monotonically (max+1,
// starting at 1) and public keys must be unique across every key ever
// issued, active or not.
func (s *EscrowService) AddAdminKey(ctx context.Context, caller auth.Caller, p AddAdminKeyParams) (*models.AdminKey, error) {
	if !caller.IsService {
		return nil, fmt.Errorf("admin keys are managed by the service identity only: %w", ledgererr.ErrPermissionDenied)
	}
	if p.AdminAccount == "" {
		return nil, fmt.Errorf("admin_account cannot be empty: %w", ledgererr.ErrInvalidArgument)
	}
	if len(p.PublicKey) != publicKeyLen {
		return nil, fmt.Errorf("invalid X25519 public key length: %w", ledgererr.ErrInvalidArgument)
	}
	if len(p.Description) == 0 || len(p.Description) > maxKeyDescriptionLen {
		return nil, fmt.Errorf("invalid description: %w", ledgererr.ErrInvalidArgument)
	}

	now := s.now()

	var key *models.AdminKey
	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		exists, err := r.AdminKeys().PublicKeyExists(ctx, p.PublicKey)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("public_key already exists: %w", ledgererr.ErrAlreadyExists)
		}

		keyID, err := r.AdminKeys().NextKeyID(ctx)
		if err != nil {
			return err
		}

		key = &models.AdminKey{
			KeyID:        keyID,
			AdminAccount: p.AdminAccount,
			PublicKey:    p.PublicKey,
			Description:  p.Description,
			AddedAt:      now,
			IsActive:     true,
		}
		return r.AdminKeys().Create(ctx, key)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "admin key added", "key_id", key.KeyID, "admin_account", p.AdminAccount)
	return key, nil
}

// RemoveAdminKey deactivates a key. Privileged-service-only. The record is
// kept so escrow entries issued against it retain their historical meaning;
// files escrowed to it keep their now-orphaned entries.
func (s *EscrowService) RemoveAdminKey(ctx context.Context, caller auth.Caller, keyID uint64) error {
	if !caller.IsService {
		return fmt.Errorf("admin keys are managed by the service identity only: %w", ledgererr.ErrPermissionDenied)
	}

	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		if _, err := r.AdminKeys().Get(ctx, keyID); err != nil {
			return fmt.Errorf("admin key: %w", err)
		}
		return r.AdminKeys().Deactivate(ctx, keyID)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "admin key deactivated", "key_id", keyID)
	return nil
}

// AddAdminDek appends one escrow ciphertext to a file created before the
// newest admin keys existed. Privileged-service-only. Accepted only while
// the file's escrow set is shorter than the active-key count; a saturated
// file rejects further catch-up.
func (s *EscrowService) AddAdminDek(ctx context.Context, caller auth.Caller, fileID uint64, encryptedDEK string) error {
	if !caller.IsService {
		return fmt.Errorf("escrow catch-up is performed by the service identity only: %w", ledgererr.ErrPermissionDenied)
	}
	if fileID == 0 {
		return fmt.Errorf("file_id must be positive: %w", ledgererr.ErrInvalidArgument)
	}
	if encryptedDEK == "" {
		return fmt.Errorf("new_encrypted_dek cannot be empty: %w", ledgererr.ErrInvalidArgument)
	}

	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		f, err := r.Files().Get(ctx, fileID)
		if err != nil {
			return fmt.Errorf("file: %w", err)
		}

		active, err := r.AdminKeys().CountActive(ctx)
		if err != nil {
			return err
		}
		if len(f.AdminEncryptedDEKs) >= active {
			return fmt.Errorf("file already has DEKs for all active admin keys: %w", ledgererr.ErrFailedPrecondition)
		}

		return r.Files().AppendAdminDEK(ctx, fileID, encryptedDEK)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "escrow entry appended", "file_id", fileID)
	return nil
}

// ListActiveKeys returns the active administrator keys in key id order —
// the enumeration order escrow sets are produced in.
func (s *EscrowService) ListActiveKeys(ctx context.Context) ([]*models.AdminKey, error) {
	var keys []*models.AdminKey
	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		var err error
		keys, err = r.AdminKeys().ListActive(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
