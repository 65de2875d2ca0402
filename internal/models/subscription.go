package models

type SubscriptionTier string

const (
	TierFree SubscriptionTier = "free"
	TierPro  SubscriptionTier = "pro"
)

type Subscription struct {
	Tier     SubscriptionTier `json:"tier"`
	IsActive bool             `json:"is_active"`
}

type SubscriptionLimits struct {
	FileSize        int64  `json:"file_size"` // bytes
	Duration        int    `json:"duration"`  // minutes
	FileSizeDisplay string `json:"file_size_display"`
	DurationDisplay string `json:"duration_display"`
}

type SubscriptionData struct {
	UserID       string             `json:"user_id"`
	Subscription Subscription       `json:"subscription"`
	Limits       SubscriptionLimits `json:"limits"`
}

// DefaultFreeTier is what callers fall back to when the subscription
// backend is unreachable.
func DefaultFreeTier(userID string) SubscriptionData {
	return SubscriptionData{
		UserID:       userID,
		Subscription: Subscription{Tier: TierFree, IsActive: true},
		Limits: SubscriptionLimits{
			FileSize:        500 << 20,
			Duration:        2,
			FileSizeDisplay: "500 MB",
			DurationDisplay: "2 minutes",
		},
	}
}
