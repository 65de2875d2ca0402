package services

import (
	"context"
	"errors"

	"github.com/scribeapp/scribe/internal/models"
	mongorepo "github.com/scribeapp/scribe/internal/repositories/mongo"
	"github.com/scribeapp/scribe/internal/utils"
)

type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, userID, displayName, email, university string) (*models.Profile, error)
}

type profileService struct {
	profiles mongorepo.ProfileRepository
}

func NewProfileService(profiles mongorepo.ProfileRepository) ProfileService {
	return &profileService{profiles: profiles}
}

func (s *profileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	const op = "ProfileService.Get"

	if userID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "identity is required", nil)
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "profile not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get profile", err)
	}
	return p, nil
}

func (s *profileService) Update(ctx context.Context, userID, displayName, email, university string) (*models.Profile, error) {
	const op = "ProfileService.Update"

	if userID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "identity is required", nil)
	}

	p := &models.Profile{
		UserID:      userID,
		DisplayName: displayName,
		Email:       email,
		University:  university,
	}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to update profile", err)
	}
	return p, nil
}
