package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/verarta/artledger/internal/ledgererr"
	"github.com/verarta/artledger/internal/logging"
	"github.com/verarta/artledger/internal/server/auth"
	"github.com/verarta/artledger/internal/server/models"
	"github.com/verarta/artledger/internal/server/repositories/repomanager"
	"github.com/verarta/artledger/internal/timex"
)

// QuotaService enforces per-account rolling daily and weekly upload limits.
// Windows are lazily evaluated: counters reset on the first admission check
// at or after the window boundary, never on a timer.
type QuotaService struct {
	store  repomanager.Store
	logger logging.Logger
	now    func() int64
}

func NewQuotaService(store repomanager.Store, logger logging.Logger) *QuotaService {
	return &QuotaService{
		store:  store,
		logger: logger.With("module", "quota_service"),
		now:    unixNow,
	}
}

// SetQuotaParams carries the explicit limits for one account.
type SetQuotaParams struct {
	Account         string
	Tier            uint8
	DailyFileLimit  uint32
	DailySizeLimit  uint64
	WeeklyFileLimit uint32
	WeeklySizeLimit uint64
}

// SetQuota creates or updates an account's limits. Privileged-service-only.
// Updating an existing record changes limits only; usage counters and reset
// timestamps are preserved.
func (s *QuotaService) SetQuota(ctx context.Context, caller auth.Caller, p SetQuotaParams) error {
	if !caller.IsService {
		return fmt.Errorf("quotas are set by the service identity only: %w", ledgererr.ErrPermissionDenied)
	}
	if p.Account == "" {
		return fmt.Errorf("account cannot be empty: %w", ledgererr.ErrInvalidArgument)
	}
	if p.Tier > models.TierPremium {
		return fmt.Errorf("tier must be 0 (free) or 1 (premium): %w", ledgererr.ErrInvalidArgument)
	}
	if p.DailyFileLimit == 0 || p.DailySizeLimit == 0 || p.WeeklyFileLimit == 0 || p.WeeklySizeLimit == 0 {
		return fmt.Errorf("limits must be positive: %w", ledgererr.ErrInvalidArgument)
	}
	if p.WeeklyFileLimit < p.DailyFileLimit {
		return fmt.Errorf("weekly_file_limit must be >= daily_file_limit: %w", ledgererr.ErrInvalidArgument)
	}
	if p.WeeklySizeLimit < p.DailySizeLimit {
		return fmt.Errorf("weekly_size_limit must be >= daily_size_limit: %w", ledgererr.ErrInvalidArgument)
	}

	now := s.now()

	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		q, err := r.Quotas().Get(ctx, p.Account)
		if errors.Is(err, ledgererr.ErrNotFound) {
			return r.Quotas().Create(ctx, &models.UsageQuota{
				Account:         p.Account,
				Tier:            p.Tier,
				DailyFileLimit:  p.DailyFileLimit,
				DailySizeLimit:  p.DailySizeLimit,
				DailyResetAt:    timex.NextMidnight(now),
				WeeklyFileLimit: p.WeeklyFileLimit,
				WeeklySizeLimit: p.WeeklySizeLimit,
				WeeklyResetAt:   timex.NextMonday(now),
			})
		}
		if err != nil {
			return err
		}

		q.Tier = p.Tier
		q.DailyFileLimit = p.DailyFileLimit
		q.DailySizeLimit = p.DailySizeLimit
		q.WeeklyFileLimit = p.WeeklyFileLimit
		q.WeeklySizeLimit = p.WeeklySizeLimit
		return r.Quotas().Replace(ctx, q)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "quota set", "account", p.Account, "tier", p.Tier)
	return nil
}

// GetQuota returns the account's quota record.
func (s *QuotaService) GetQuota(ctx context.Context, account string) (*models.UsageQuota, error) {
	var q *models.UsageQuota
	err := s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		var err error
		q, err = r.Quotas().Get(ctx, account)
		return err
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Admit checks and consumes quota for one prospective file of fileSize bytes.
// It runs inside the caller's transaction (file creation), so a later abort
// in the same operation also rolls the consumed quota back.
//
// An absent record is synthesized with default free-tier limits and the new
// file immediately consumes one unit of the fresh windows: create-and-admit
// is one step, not two.
func (s *QuotaService) Admit(ctx context.Context, r repomanager.Repos, account string, fileSize uint64, now int64) error {
	q, err := r.Quotas().Get(ctx, account)
	if errors.Is(err, ledgererr.ErrNotFound) {
		return r.Quotas().Create(ctx, &models.UsageQuota{
			Account:         account,
			Tier:            models.TierFree,
			DailyFileLimit:  defaultDailyFileLimit,
			DailySizeLimit:  defaultDailySizeLimit,
			DailyFilesUsed:  1,
			DailySizeUsed:   fileSize,
			DailyResetAt:    timex.NextMidnight(now),
			WeeklyFileLimit: defaultWeeklyFileLimit,
			WeeklySizeLimit: defaultWeeklySizeLimit,
			WeeklyFilesUsed: 1,
			WeeklySizeUsed:  fileSize,
			WeeklyResetAt:   timex.NextMonday(now),
		})
	}
	if err != nil {
		return err
	}

	// Lazy window resets; the two windows are independent and may both
	// expire in the same call.
	if now >= q.DailyResetAt {
		q.DailyFilesUsed = 0
		q.DailySizeUsed = 0
		q.DailyResetAt = timex.NextMidnight(now)
	}
	if now >= q.WeeklyResetAt {
		q.WeeklyFilesUsed = 0
		q.WeeklySizeUsed = 0
		q.WeeklyResetAt = timex.NextMonday(now)
	}

	if q.DailyFilesUsed >= q.DailyFileLimit {
		return fmt.Errorf("daily file count limit exceeded: %w", ledgererr.ErrResourceExhausted)
	}
	if q.DailySizeUsed+fileSize > q.DailySizeLimit {
		return fmt.Errorf("daily size limit exceeded: %w", ledgererr.ErrResourceExhausted)
	}
	if q.WeeklyFilesUsed >= q.WeeklyFileLimit {
		return fmt.Errorf("weekly file count limit exceeded: %w", ledgererr.ErrResourceExhausted)
	}
	if q.WeeklySizeUsed+fileSize > q.WeeklySizeLimit {
		return fmt.Errorf("weekly size limit exceeded: %w", ledgererr.ErrResourceExhausted)
	}

	q.DailyFilesUsed++
	q.DailySizeUsed += fileSize
	q.WeeklyFilesUsed++
	q.WeeklySizeUsed += fileSize

	return r.Quotas().Replace(ctx, q)
}
