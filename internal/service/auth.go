// Package service — authentication business logic.
//
// AuthService sits between the HTTP handlers and the repository/auth
// utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) / PasswordService (bcrypt)
//
// Two identity paths share the same account rows:
//   - email+password: signup hashes the password, login verifies it
//   - Google OAuth: the callback upserts on the stable Google subject ID
//
// Either path ends in the same place — a JWT access token the handler
// sets as an HttpOnly cookie. Signup is also where referral codes are
// redeemed, because that is the only moment a "referred user" comes into
// existence.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/auth"
	"github.com/amara/mothertongue/internal/model"
	"github.com/amara/mothertongue/internal/repository"
)

const (
	MinPasswordLength = 8
	MaxEmailLength    = 254
	MaxDisplayName    = 80

	// referralCodeAlphabet omits 0/O and 1/I/L — these codes get read
	// aloud and typed from phone screens.
	referralCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	referralCodeLength   = 8
)

// AuthService handles signup, login, and the Google OAuth callback.
type AuthService struct {
	users     repository.UserRepository
	profiles  repository.ProfileRepository
	referrals *ReferralService
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	referrals *ReferralService,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		profiles:  profiles,
		referrals: referrals,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user, their profile, and the issued JWT so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User    *model.User
	Profile *model.Profile
	Token   string
}

// SignUp creates an email+password account.
//
// The referral code, if given, is validated BEFORE the account is created
// — a typo'd code should fail the signup form, not silently create an
// account with no referral attached. The redemption itself runs after the
// account exists (it needs the new user's ID); by then the only way it
// can fail is a race, which is logged and tolerated.
func (s *AuthService) SignUp(ctx context.Context, email, password, displayName, referralCode string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") || len(email) > MaxEmailLength {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = email[:strings.Index(email, "@")]
	}
	if len(displayName) > MaxDisplayName {
		return nil, apperror.ValidationFailed("displayName", fmt.Sprintf("display name must be %d characters or fewer", MaxDisplayName))
	}

	referralCode = strings.ToUpper(strings.TrimSpace(referralCode))
	if referralCode != "" {
		if _, err := s.profiles.GetByReferralCode(ctx, referralCode); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return nil, apperror.ValidationFailed("referralCode", "unknown referral code")
			}
			return nil, fmt.Errorf("service/auth: validating referral code: %w", err)
		}
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{Email: email, PasswordHash: hash}
	profile := &model.Profile{
		DisplayName:  displayName,
		ReferralCode: newReferralCode(),
	}
	if err := s.users.Create(ctx, user, profile); err != nil {
		return nil, fmt.Errorf("service/auth: creating account: %w", err)
	}

	s.logger.Info("account created",
		slog.String("userID", user.ID),
		slog.Bool("referred", referralCode != ""),
	)

	if referralCode != "" {
		if _, err := s.referrals.Redeem(ctx, referralCode, user.ID); err != nil {
			// The code was valid moments ago; losing the race here should
			// not unwind a committed account.
			s.logger.Warn("referral redemption failed after signup",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return s.issue(user, profile)
}

// Login verifies an email+password pair.
//
// Both "no such account" and "wrong password" return the same forbidden
// error, so a caller cannot probe which emails have accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Forbidden("invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: fetching account: %w", err)
	}
	if user.PasswordHash == "" {
		// Google-only account — no password to check.
		return nil, apperror.Forbidden("invalid email or password")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Forbidden("invalid email or password")
	}

	profile, err := s.profiles.GetByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching profile: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user, profile)
}

// LoginOrRegisterGoogle handles the Google OAuth callback: find the
// account by the stable Google subject ID, creating it on first login.
//
// If the Google email already belongs to a password account, we refuse
// rather than silently linking — account linking needs the password
// holder's consent, which this flow cannot collect.
func (s *AuthService) LoginOrRegisterGoogle(ctx context.Context, gUser *auth.GoogleUser) (*AuthResult, error) {
	if gUser == nil || gUser.ID == "" {
		return nil, fmt.Errorf("service/auth: Google user must not be nil")
	}

	user, err := s.users.GetByGoogleID(ctx, gUser.ID)
	if err == nil {
		profile, err := s.profiles.GetByID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("service/auth: fetching profile: %w", err)
		}
		s.logger.Info("user logged in via Google", slog.String("userID", user.ID))
		return s.issue(user, profile)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up Google account: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(gUser.Email))
	if email == "" {
		// Google can withhold the email; the users table still needs a
		// unique one.
		email = gUser.ID + "@users.noreply.google"
	} else if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.AlreadyExists("an account with this email already exists — log in with your password")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking existing email: %w", err)
	}

	displayName := strings.TrimSpace(gUser.Name)
	if displayName == "" {
		displayName = "Contributor"
	}

	user = &model.User{Email: email, GoogleID: gUser.ID}
	profile := &model.Profile{
		DisplayName:  displayName,
		AvatarURL:    gUser.Picture,
		ReferralCode: newReferralCode(),
	}
	if err := s.users.Create(ctx, user, profile); err != nil {
		return nil, fmt.Errorf("service/auth: creating Google account: %w", err)
	}

	s.logger.Info("account created via Google", slog.String("userID", user.ID))
	return s.issue(user, profile)
}

// GetUserByID returns the user for the given internal ID. Used by the
// /api/me handler after the middleware validates the JWT.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User, profile *model.Profile) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Profile: profile, Token: token}, nil
}

// newReferralCode draws 8 characters from a confusion-free alphabet —
// roughly 1e12 possibilities, so collisions surface as a constraint
// violation at signup, not something worth a retry loop.
func newReferralCode() string {
	buf := make([]byte, referralCodeLength)
	rand.Read(buf) // crypto/rand.Read never fails on supported platforms
	for i, b := range buf {
		buf[i] = referralCodeAlphabet[int(b)%len(referralCodeAlphabet)]
	}
	return string(buf)
}
