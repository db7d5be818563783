package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/model"
	"github.com/amara/mothertongue/internal/repository"
)

// ReferralService redeems referral codes and awards the bonus.
type ReferralService struct {
	referrals repository.ReferralRepository
	profiles  repository.ProfileRepository
	logger    *slog.Logger
}

// NewReferralService creates a ReferralService.
func NewReferralService(
	referrals repository.ReferralRepository,
	profiles repository.ProfileRepository,
	logger *slog.Logger,
) *ReferralService {
	return &ReferralService{referrals: referrals, profiles: profiles, logger: logger}
}

// Redeem resolves a referral code and records the referral for the newly
// signed-up user, crediting the code's owner their one-time bonus.
//
// Self-referral is a hard error, not a silent no-op. A user who was
// already referred (however the race happened) yields ErrConflict from
// the unique constraint, with nothing committed.
func (s *ReferralService) Redeem(ctx context.Context, code, referredUserID string) (*model.Referral, error) {
	if code == "" {
		return nil, apperror.ValidationFailed("referralCode", "referral code is required")
	}
	if referredUserID == "" {
		return nil, apperror.ValidationFailed("userId", "user id is required")
	}

	referrer, err := s.profiles.GetByReferralCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("service/referral: resolving code: %w", err)
	}
	if referrer.ID == referredUserID {
		return nil, apperror.Forbidden("you cannot redeem your own referral code")
	}

	// Friendly rejection for the common retry; the unique constraint on
	// the insert below remains the actual guard.
	if _, err := s.referrals.GetByReferredUser(ctx, referredUserID); err == nil {
		return nil, apperror.AlreadyExists("a referral was already recorded for this account")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/referral: checking existing referral: %w", err)
	}

	ref := &model.Referral{
		ReferrerID:     referrer.ID,
		ReferredUserID: referredUserID,
	}
	if err := s.referrals.Create(ctx, ref); err != nil {
		return nil, fmt.Errorf("service/referral: recording referral: %w", err)
	}

	s.logger.Info("referral redeemed",
		slog.String("referrerID", referrer.ID),
		slog.String("referredUserID", referredUserID),
		slog.Int("bonus", model.ReferralBonusPoints),
	)
	return ref, nil
}
