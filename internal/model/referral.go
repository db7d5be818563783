package model

import "time"

// ReferralBonusPoints is the flat one-time award to the referrer.
const ReferralBonusPoints = 50

// Referral records a referrer→referred-user edge.
//
// At most one referral row can ever exist per referred user — enforced by
// a UNIQUE constraint on ReferredUserID, not by application code. The
// points award happens in the same transaction as the insert with
// PointsAwarded set true, so two racing inserts can never double-award:
// the loser of the race hits the constraint and commits nothing.
type Referral struct {
	ID             string    `json:"id"`
	ReferrerID     string    `json:"referrerId"`
	ReferredUserID string    `json:"referredUserId"`
	PointsAwarded  bool      `json:"pointsAwarded"`
	CreatedAt      time.Time `json:"createdAt"`
}
