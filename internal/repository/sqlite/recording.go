package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/model"
	"github.com/amara/mothertongue/internal/repository"
)

// RecordingRepo implements repository.RecordingRepository.
type RecordingRepo struct {
	db *DB
}

var _ repository.RecordingRepository = (*RecordingRepo)(nil)

// NewRecordingRepo creates a RecordingRepo backed by db.
func NewRecordingRepo(db *DB) *RecordingRepo {
	return &RecordingRepo{db: db}
}

// CreateWithProgress performs the whole recording-submission write in one
// transaction:
//
//	1. insert the recording row
//	2. insert-or-update the (user, language) progress counter
//	3. credit the user's profile (points + total_recordings)
//
// THE UPSERT IS THE CONCURRENCY STORY:
// Step 2 is a single INSERT ... ON CONFLICT DO UPDATE keyed on the
// (user_id, language_id) primary key. Two near-simultaneous submissions
// from the same user (a double-tap) are serialized by the database on
// that key — each one increments from the value the previous one
// committed, so no count is ever lost. The can_generate_next flag is
// computed inside the same statement from the post-increment count, so
// the invariant "flag ⇔ count >= threshold" can't be observed broken.
func (r *RecordingRepo) CreateWithProgress(ctx context.Context, rec *model.Recording, languageID string, points int) error {
	rec.ID = xid.New().String()
	rec.CreatedAt = time.Now()

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning recording transaction: %w", err)
	}
	defer tx.Rollback() // no-op after a successful Commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recordings (id, task_id, user_id, audio_url, notes, duration_seconds, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TaskID, rec.UserID, rec.AudioURL, rec.Notes,
		rec.DurationSeconds, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting recording: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_task_progress
		   (user_id, language_id, recordings_count, can_generate_next, last_recording_at, updated_at)
		 VALUES (?, ?, 1, 0, ?, ?)
		 ON CONFLICT(user_id, language_id) DO UPDATE SET
		   recordings_count  = user_task_progress.recordings_count + 1,
		   can_generate_next = CASE
		     WHEN user_task_progress.recordings_count + 1 >= ? THEN 1 ELSE 0 END,
		   last_recording_at = excluded.last_recording_at,
		   updated_at        = excluded.updated_at`,
		rec.UserID, languageID, rec.CreatedAt, rec.CreatedAt, model.UnlockThreshold,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting progress: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE profiles
		 SET points = points + ?, total_recordings = total_recordings + 1, updated_at = ?
		 WHERE id = ?`,
		points, rec.CreatedAt, rec.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: crediting profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking profile credit: %w", err)
	}
	if affected == 0 {
		// A recording without a profile means the account rows are
		// inconsistent — refuse to commit a half-applied award.
		return apperror.NotFound("profile", rec.UserID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing recording transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a single recording.
func (r *RecordingRepo) GetByID(ctx context.Context, id string) (*model.Recording, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT id, task_id, user_id, audio_url, notes, duration_seconds,
		        archive_cid, archived_at, created_at
		 FROM recordings WHERE id = ?`, id)

	rec, err := scanRecording(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("recording", id)
		}
		return nil, fmt.Errorf("sqlite: getting recording %s: %w", id, err)
	}
	return rec, nil
}

// ListByUser returns the user's recordings, newest first.
func (r *RecordingRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.Recording, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, task_id, user_id, audio_url, notes, duration_seconds,
		        archive_cid, archived_at, created_at
		 FROM recordings
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recordings: %w", err)
	}
	defer rows.Close()

	var recs []model.Recording
	for rows.Next() {
		rec, err := scanRecording(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning recording row: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recordings: %w", err)
	}
	return recs, nil
}

// MarkArchived writes the archival fields after the async copy succeeds.
// The recording itself stays immutable otherwise.
func (r *RecordingRepo) MarkArchived(ctx context.Context, id, cid string, at time.Time) error {
	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE recordings SET archive_cid = ?, archived_at = ? WHERE id = ?`,
		cid, at, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking recording %s archived: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("recording", id)
	}
	return nil
}

func scanRecording(scan func(...any) error) (*model.Recording, error) {
	var rec model.Recording
	var archivedAt sql.NullTime
	err := scan(
		&rec.ID, &rec.TaskID, &rec.UserID, &rec.AudioURL, &rec.Notes,
		&rec.DurationSeconds, &rec.ArchiveCID, &archivedAt, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if archivedAt.Valid {
		rec.ArchivedAt = &archivedAt.Time
	}
	return &rec, nil
}
