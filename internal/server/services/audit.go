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

// AuditService appends administrator access claims to the immutable access
// log. Entries are advisory: they gate nothing and decrypt nothing.
type AuditService struct {
	store  repomanager.Store
	logger logging.Logger
	now    func() int64
}

func NewAuditService(store repomanager.Store, logger logging.Logger) *AuditService {
	return &AuditService{
		store:  store,
		logger: logger.With("module", "audit_service"),
		now:    unixNow,
	}
}

// LogAccess records that adminAccount claims access to fileID for the given
// reason. The caller must be adminAccount itself and must hold at least one
// currently active administrator key.
func (s *AuditService) LogAccess(ctx context.Context, caller auth.Caller, adminAccount string, fileID uint64, reason string) (*models.AccessLog, error) {
	if !caller.Is(adminAccount) {
		return nil, fmt.Errorf("access is logged by the admin account itself: %w", ledgererr.ErrPermissionDenied)
	}
	if fileID == 0 {
		return nil, fmt.Errorf("file_id must be positive: %w", ledgererr.ErrInvalidArgument)
	}
	if len(reason) == 0 || len(reason) > maxReasonLen {
		return nil, fmt.Errorf("invalid reason: %w", ledgererr.ErrInvalidArgument)
	}

	now := s.now()

	var entry *models.AccessLog
	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		if _, err := r.Files().Get(ctx, fileID); err != nil {
			return fmt.Errorf("file: %w", err)
		}

		hasKey, err := r.AdminKeys().HasActiveForAccount(ctx, adminAccount)
		if err != nil {
			return err
		}
		if !hasKey {
			return fmt.Errorf("admin_account does not have an active admin key: %w", ledgererr.ErrPermissionDenied)
		}

		logID, err := r.AccessLogs().NextLogID(ctx)
		if err != nil {
			return err
		}

		entry = &models.AccessLog{
			LogID:        logID,
			AdminAccount: adminAccount,
			FileID:       fileID,
			Reason:       reason,
			AccessedAt:   now,
		}
		return r.AccessLogs().Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "admin access logged", "log_id", entry.LogID, "admin_account", adminAccount, "file_id", fileID)
	return entry, nil
}

// ListFileAccess returns every access claim recorded against a file, in log
// id order. The log is append-only, so the listing is stable.
func (s *AuditService) ListFileAccess(ctx context.Context, fileID uint64) ([]*models.AccessLog, error) {
	var entries []*models.AccessLog
	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		if _, err := r.Files().Get(ctx, fileID); err != nil {
			return fmt.Errorf("file: %w", err)
		}
		var err error
		entries, err = r.AccessLogs().ListByFile(ctx, fileID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
