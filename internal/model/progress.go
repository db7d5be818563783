package model

import "time"

// UnlockThreshold is the number of recordings a user must submit in the
// current cycle before the next task may be generated for that language.
const UnlockThreshold = 2

// TaskProgress is the per-(user, language) recording counter.
//
// INVARIANT: CanGenerateNext ⇔ RecordingsCount >= UnlockThreshold.
// The sqlite layer maintains this inside the same statement that increments
// the counter, so the invariant holds even under concurrent submissions —
// there is deliberately no application-level check-then-write.
//
// The row is created on the first recording, incremented on every
// subsequent one, and reset to zero each time a new task is generated.
type TaskProgress struct {
	UserID          string     `json:"userId"`
	LanguageID      string     `json:"languageId"`
	RecordingsCount int        `json:"recordingsCount"`
	CanGenerateNext bool       `json:"canGenerateNext"`
	LastRecordingAt *time.Time `json:"lastRecordingAt,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
