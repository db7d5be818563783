package model

import "time"

// User is an account identity. A user signs in either with email+password
// or through Google OAuth (GoogleID set, PasswordHash empty).
//
// WHY Email string (not *string)?
// OAuth providers can withhold the email. We use an empty string as the
// zero value rather than a nullable pointer — simpler to work with and
// safe to display.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialized
	GoogleID     string    `json:"-"` // Google's stable subject ID, empty for password accounts
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the public face of a user: display name, avatar, and the
// gamification counters. It shares its ID with the owning User row and is
// created in the same transaction as the account.
//
// Points is monotonically non-decreasing: it only ever moves through
// awards (per-recording, scaled by difficulty, and the one-time referral
// bonus). TotalRecordings only ever increments.
type Profile struct {
	ID              string    `json:"id"` // same as User.ID
	DisplayName     string    `json:"displayName"`
	AvatarURL       string    `json:"avatarUrl"`
	ReferralCode    string    `json:"referralCode"` // short unique code others redeem at signup
	Points          int       `json:"points"`
	TotalRecordings int       `json:"totalRecordings"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
