package model

import "time"

// Language is a target language for voice contributions.
//
// Languages are created lazily — either from the explicit seed list at
// startup or on first reference by code — and never deleted. The only
// mutation after creation is a code backfill for rows that predate codes.
type Language struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"` // BCP-47-ish tag, e.g. "zu", "mi", "nv"
	Name      string    `json:"name"` // display name, e.g. "isiZulu"
	IsPopular bool      `json:"isPopular"`
	CreatedAt time.Time `json:"createdAt"`
}
