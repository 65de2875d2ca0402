package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scribeapp/scribe/internal/cache"
	"github.com/scribeapp/scribe/internal/models"
	"github.com/scribeapp/scribe/internal/utils"
)

const subscriptionCacheTTL = 5 * time.Minute

type subscriptionBackend interface {
	Subscription(ctx context.Context, userID string) (*models.SubscriptionData, error)
	UpgradeSubscription(ctx context.Context, userID string, tier models.SubscriptionTier) (*models.SubscriptionData, error)
}

// SubscriptionService fronts the backend subscription endpoints with a short
// cache. Get never fails: on backend trouble the free tier is assumed.
type SubscriptionService interface {
	Get(ctx context.Context, userID string) models.SubscriptionData
	Upgrade(ctx context.Context, userID string, tier models.SubscriptionTier) (*models.SubscriptionData, error)
}

type subscriptionService struct {
	backend subscriptionBackend
	cache   cache.Cache
	log     *logrus.Logger
}

func NewSubscriptionService(b subscriptionBackend, c cache.Cache, log *logrus.Logger) SubscriptionService {
	return &subscriptionService{backend: b, cache: c, log: log}
}

func cacheKey(userID string) string { return "subscription:" + userID }

func (s *subscriptionService) Get(ctx context.Context, userID string) models.SubscriptionData {
	if userID == "" {
		return models.DefaultFreeTier(userID)
	}

	if s.cache != nil {
		var cached models.SubscriptionData
		if hit, err := s.cache.GetJSON(ctx, cacheKey(userID), &cached); err == nil && hit {
			return cached
		}
	}

	data, err := s.backend.Subscription(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).
			Warn("subscription lookup failed, assuming free tier")
		return models.DefaultFreeTier(userID)
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cacheKey(userID), data, subscriptionCacheTTL)
	}
	return *data
}

func (s *subscriptionService) Upgrade(ctx context.Context, userID string, tier models.SubscriptionTier) (*models.SubscriptionData, error) {
	const op = "SubscriptionService.Upgrade"

	if userID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "identity is required", nil)
	}
	if tier != models.TierPro && tier != models.TierFree {
		return nil, utils.E(utils.CodeInvalidArgument, op, "unknown tier", nil)
	}

	data, err := s.backend.UpgradeSubscription(ctx, userID, tier)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to update subscription", err)
	}

	if s.cache != nil {
		_ = s.cache.Del(ctx, cacheKey(userID))
	}
	return data, nil
}
