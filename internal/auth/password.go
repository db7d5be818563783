// Package auth — password hashing utilities.
//
// Password auth is one of two ways into an account here; contributors who
// sign in with Google never have a password at all, and their users row
// carries an empty password_hash. Verify treats that case explicitly —
// see below.
//
// WHY BCRYPT?
// bcrypt is a password hashing function specifically designed to be slow.
// That slowness is a security feature: it makes brute-force attacks expensive.
//
// bcrypt automatically:
//   - Generates a random salt (so two users with the same password get different hashes)
//   - Embeds the salt in the output hash (no separate salt column needed)
//   - Controls the work factor via "cost" (higher = slower = harder to crack)
//
// NEVER store passwords in plain text or with fast hashes (MD5, SHA-256).
// Those can be cracked with GPU-accelerated rainbow tables in minutes.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor.
//
// Cost 12 ≈ 250ms of hashing per login on a modern server. Tune it so that
// number stays in the 200–300ms range on whatever hardware actually runs
// this: too low is crackable, too high and signup spikes (a language
// community onboarding at an event hits this endpoint in bursts) turn
// into a bcrypt queue.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so that the cost can be injected
// in tests — using a lower cost (e.g. 4) makes tests run much faster
// without compromising the logic being tested.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// newPasswordServiceWithCost creates a PasswordService with a custom cost.
// Unexported helper used by the tests in this package.
func newPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest creates a PasswordService with the given
// (low) bcrypt cost. Use it in tests in other packages to avoid the
// ~250ms overhead of cost 12 per hashing operation — the service-layer
// auth tests run it at cost 4, the minimum bcrypt allows.
//
// Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The output is a self-contained string like:
//
//	$2a$12$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy
//
// Store this string directly in the users table. It includes the salt and
// cost — bcrypt.CompareHashAndPassword knows how to decode it.
//
// Minimum length is the signup service's concern
// (service.MinPasswordLength); the only length rule enforced here is
// bcrypt's own 72-byte ceiling, rejected explicitly because bcrypt would
// otherwise truncate silently.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil if they match, a non-nil error if they don't.
//
// An empty hash means the account was created through Google sign-in and
// has no password; that fails here rather than in bcrypt so the error
// says what actually happened. The login service folds all of these into
// one uniform "invalid email or password" response — the distinction
// exists for logs, not for clients.
//
// TIMING SAFETY:
// bcrypt.CompareHashAndPassword uses a constant-time comparison internally,
// so this function is safe against timing attacks — an attacker can't tell
// from response time whether they got the first byte right.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if hash == "" {
		return fmt.Errorf("auth: account has no password set")
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
