// Package repository defines the storage interfaces the services program
// against. The sqlite subpackage is the production implementation; tests
// substitute in-memory mocks.
//
// DESIGN RULE — NO CHECK-THEN-WRITE:
// Every multi-row invariant in this system (the progress counter, the
// points balance, the one-referral-per-user rule) is guarded inside a
// single repository method that runs one transaction with conditional
// upserts or uniqueness constraints. Callers never read a counter, modify
// it, and write it back — that pattern loses updates under concurrency.
package repository

import (
	"context"
	"time"

	"github.com/amara/mothertongue/internal/model"
)

// LanguageRepository stores the language catalog. Languages are created
// lazily and never deleted.
type LanguageRepository interface {
	Create(ctx context.Context, lang *model.Language) error
	GetByID(ctx context.Context, id string) (*model.Language, error)
	GetByCode(ctx context.Context, code string) (*model.Language, error)
	List(ctx context.Context) ([]model.Language, error)
}

// TaskRepository stores translation tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	// CreateBatch inserts several tasks in one transaction — used to seed
	// a language's starter sequence atomically.
	CreateBatch(ctx context.Context, tasks []*model.Task) error
	GetByID(ctx context.Context, id string) (*model.Task, error)
	// CountByLanguage reports how many tasks exist for a language.
	// Zero means the language has never been seeded.
	CountByLanguage(ctx context.Context, languageID string) (int, error)
	// StarterTasks returns the language's starter sequence ordered by
	// sequence number.
	StarterTasks(ctx context.Context, languageID string) ([]model.Task, error)
	// FirstIncompleteStarter returns the lowest-sequence starter task the
	// user has not recorded yet, or nil when the user completed them all.
	FirstIncompleteStarter(ctx context.Context, languageID, userID string) (*model.Task, error)
	// RecentTexts returns the English texts of the most recent tasks for
	// the language, newest first — the candidate avoid-list.
	RecentTexts(ctx context.Context, languageID string, limit int) ([]string, error)
	// ListByLanguage returns the language's tasks, newest first.
	ListByLanguage(ctx context.Context, languageID string, limit int) ([]model.Task, error)
}

// RecordingRepository stores audio submissions.
type RecordingRepository interface {
	// CreateWithProgress performs the whole recording-submission write in
	// one transaction: insert the recording, bump the (user, language)
	// progress row (insert-or-update keyed on the unique pair), and credit
	// the user's profile with points and total_recordings. If any part
	// fails, nothing is committed.
	CreateWithProgress(ctx context.Context, rec *model.Recording, languageID string, points int) error
	GetByID(ctx context.Context, id string) (*model.Recording, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Recording, error)
	// MarkArchived records the content identifier once the async archival
	// copy succeeds. The only mutation a recording ever sees.
	MarkArchived(ctx context.Context, id, cid string, at time.Time) error
}

// ProgressRepository reads and resets the per-(user, language) counters.
// Increments happen only through RecordingRepository.CreateWithProgress.
type ProgressRepository interface {
	// Get returns the progress row, or apperror.ErrNotFound when the user
	// has never recorded in the language.
	Get(ctx context.Context, userID, languageID string) (*model.TaskProgress, error)
	// Reset zeroes the counter and relocks generation — called as the
	// side effect of generating a new task. Creating the row if missing
	// keeps the reset idempotent.
	Reset(ctx context.Context, userID, languageID string) error
}

// UserRepository stores account identities.
type UserRepository interface {
	// Create inserts the user and their profile in one transaction —
	// a profile exists from the instant the account does.
	Create(ctx context.Context, user *model.User, profile *model.Profile) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.User, error)
}

// ProfileRepository reads profiles. All counter mutations go through the
// recording and referral write paths.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	GetByReferralCode(ctx context.Context, code string) (*model.Profile, error)
	// Leaderboard returns the top profiles by points.
	Leaderboard(ctx context.Context, limit int) ([]model.Profile, error)
}

// ReferralRepository stores referrer→referred edges.
type ReferralRepository interface {
	// Create inserts the referral with PointsAwarded=true and credits the
	// referrer's bonus in the same transaction. A second referral for the
	// same referred user hits the uniqueness constraint and returns
	// apperror.ErrConflict with nothing committed — this is what makes
	// double-awarding impossible even under concurrent attempts.
	Create(ctx context.Context, ref *model.Referral) error
	GetByReferredUser(ctx context.Context, referredUserID string) (*model.Referral, error)
}
