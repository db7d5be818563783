package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/model"
	"github.com/amara/mothertongue/internal/repository"
)

const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100
)

// ProfileService reads profiles and the leaderboard. All counter writes
// happen inside the recording and referral transactions, never here.
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(profiles repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: logger}
}

// Get returns a profile by user ID.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user id is required")
	}
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: fetching %s: %w", userID, err)
	}
	return profile, nil
}

// Leaderboard returns the top profiles by points.
func (s *ProfileService) Leaderboard(ctx context.Context, limit int) ([]model.Profile, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	if limit > MaxLeaderboardSize {
		limit = MaxLeaderboardSize
	}
	board, err := s.profiles.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service/profile: leaderboard: %w", err)
	}
	return board, nil
}
