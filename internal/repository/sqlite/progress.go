package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/model"
	"github.com/amara/mothertongue/internal/repository"
)

// ProgressRepo implements repository.ProgressRepository.
type ProgressRepo struct {
	db *DB
}

var _ repository.ProgressRepository = (*ProgressRepo)(nil)

// NewProgressRepo creates a ProgressRepo backed by db.
func NewProgressRepo(db *DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// Get returns the progress row for (user, language), or apperror.ErrNotFound
// when the user has never recorded in that language.
func (r *ProgressRepo) Get(ctx context.Context, userID, languageID string) (*model.TaskProgress, error) {
	var p model.TaskProgress
	var lastRecordingAt sql.NullTime
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT user_id, language_id, recordings_count, can_generate_next, last_recording_at, updated_at
		 FROM user_task_progress
		 WHERE user_id = ? AND language_id = ?`,
		userID, languageID,
	).Scan(&p.UserID, &p.LanguageID, &p.RecordingsCount, &p.CanGenerateNext, &lastRecordingAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("progress", userID+"/"+languageID)
		}
		return nil, fmt.Errorf("sqlite: getting progress: %w", err)
	}
	if lastRecordingAt.Valid {
		p.LastRecordingAt = &lastRecordingAt.Time
	}
	return &p, nil
}

// Reset zeroes the counter for a new generation cycle. It upserts so that
// resetting a user who has no row yet (the seeding path) is a no-op row
// create rather than an error.
func (r *ProgressRepo) Reset(ctx context.Context, userID, languageID string) error {
	now := time.Now()
	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO user_task_progress
		   (user_id, language_id, recordings_count, can_generate_next, last_recording_at, updated_at)
		 VALUES (?, ?, 0, 0, NULL, ?)
		 ON CONFLICT(user_id, language_id) DO UPDATE SET
		   recordings_count  = 0,
		   can_generate_next = 0,
		   updated_at        = excluded.updated_at`,
		userID, languageID, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: resetting progress: %w", err)
	}
	return nil
}
