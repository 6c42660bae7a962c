package models

// Quota tiers.
const (
	TierFree    uint8 = 0
	TierPremium uint8 = 1
)

// UsageQuota tracks one account's rolling daily and weekly upload windows.
// Usage counters are meaningful only relative to their reset timestamps:
// a window does not tick on a timer, it is reset lazily by the next
// admission check at or after the boundary.
type UsageQuota struct {
	Account string
	Tier    uint8

	DailyFileLimit uint32
	DailySizeLimit uint64
	DailyFilesUsed uint32
	DailySizeUsed  uint64
	DailyResetAt   int64

	WeeklyFileLimit uint32
	WeeklySizeLimit uint64
	WeeklyFilesUsed uint32
	WeeklySizeUsed  uint64
	WeeklyResetAt   int64
}
