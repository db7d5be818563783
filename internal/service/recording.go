package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/archive"
	"github.com/amara/mothertongue/internal/model"
	"github.com/amara/mothertongue/internal/repository"
	"github.com/amara/mothertongue/internal/storage"
)

const (
	MaxNotesLength      = 2000
	MaxDurationSeconds  = 600 // ten minutes of audio is already generous
	archiveTimeout      = 2 * time.Minute
	defaultAudioContent = "audio/webm"
)

// RecordingService owns the submission flow: store the audio blob, commit
// the recording+progress+points write, then archive in the background.
type RecordingService struct {
	recordings repository.RecordingRepository
	tasks      repository.TaskRepository
	store      storage.BlobStore
	archiver   archive.Archiver // nil disables archival
	logger     *slog.Logger
}

// NewRecordingService creates a RecordingService. Pass a nil archiver to
// disable the background archival copy.
func NewRecordingService(
	recordings repository.RecordingRepository,
	tasks repository.TaskRepository,
	store storage.BlobStore,
	archiver archive.Archiver,
	logger *slog.Logger,
) *RecordingService {
	return &RecordingService{
		recordings: recordings,
		tasks:      tasks,
		store:      store,
		archiver:   archiver,
		logger:     logger,
	}
}

// Submission is the parsed recording upload.
type Submission struct {
	TaskID          string
	Audio           io.Reader
	ContentType     string
	Filename        string // client's filename, only its extension is kept
	Notes           string
	DurationSeconds int
}

// Submit validates and persists one recording.
//
// The write order matters: the blob goes to storage first, then the
// database transaction commits the recording, the progress increment, and
// the points award together. If the transaction fails the blob is
// orphaned — acceptable garbage, cleaned up out of band — but the reverse
// order could commit a recording whose audio doesn't exist.
//
// Archival is fire-and-forget: it starts after the commit, in a goroutine
// with its own timeout, and its failure is logged, never returned.
func (s *RecordingService) Submit(ctx context.Context, userID string, sub Submission) (*model.Recording, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user id is required")
	}
	if sub.TaskID == "" {
		return nil, apperror.ValidationFailed("taskId", "task id is required")
	}
	if sub.Audio == nil {
		return nil, apperror.ValidationFailed("audio", "audio payload is required")
	}
	sub.Notes = strings.TrimSpace(sub.Notes)
	if len(sub.Notes) > MaxNotesLength {
		return nil, apperror.ValidationFailed("notes", fmt.Sprintf("notes must be %d characters or fewer", MaxNotesLength))
	}
	if sub.DurationSeconds < 0 || sub.DurationSeconds > MaxDurationSeconds {
		return nil, apperror.ValidationFailed("durationSeconds", fmt.Sprintf("duration must be between 0 and %d seconds", MaxDurationSeconds))
	}

	task, err := s.tasks.GetByID(ctx, sub.TaskID)
	if err != nil {
		return nil, fmt.Errorf("service/recording: fetching task %s: %w", sub.TaskID, err)
	}

	contentType := sub.ContentType
	if contentType == "" {
		contentType = defaultAudioContent
	}
	key := blobKey(userID, sub.Filename)
	audioURL, err := s.store.Save(ctx, key, contentType, sub.Audio)
	if err != nil {
		return nil, fmt.Errorf("service/recording: storing audio: %w", err)
	}

	rec := &model.Recording{
		TaskID:          task.ID,
		UserID:          userID,
		AudioURL:        audioURL,
		Notes:           sub.Notes,
		DurationSeconds: sub.DurationSeconds,
	}
	points := task.Difficulty.Points()
	if err := s.recordings.CreateWithProgress(ctx, rec, task.LanguageID, points); err != nil {
		return nil, fmt.Errorf("service/recording: committing submission: %w", err)
	}

	s.logger.Info("recording submitted",
		slog.String("recordingID", rec.ID),
		slog.String("taskID", task.ID),
		slog.String("userID", userID),
		slog.Int("points", points),
	)

	if s.archiver != nil {
		go s.archiveAsync(rec.ID, key)
	}
	return rec, nil
}

// ListByUser returns the user's recordings, newest first.
// Get fetches a single recording, scoped to its owner. Someone else's
// recording reads as not-found rather than forbidden — the id space stays
// unprobeable.
func (s *RecordingService) Get(ctx context.Context, userID, id string) (*model.Recording, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "recording id is required")
	}
	rec, err := s.recordings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/recording: fetching recording %s: %w", id, err)
	}
	if rec.UserID != userID {
		return nil, apperror.NotFound("recording", id)
	}
	return rec, nil
}

func (s *RecordingService) ListByUser(ctx context.Context, userID string, limit int) ([]model.Recording, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user id is required")
	}
	recs, err := s.recordings.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("service/recording: listing recordings: %w", err)
	}
	return recs, nil
}

// archiveAsync copies the stored blob to content-addressed storage and
// records the identifier. Runs detached from the request: its context is
// fresh, its errors end in the log.
func (s *RecordingService) archiveAsync(recordingID, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	blob, err := s.store.Open(ctx, key)
	if err != nil {
		s.logger.Error("archival skipped: reading blob back",
			slog.String("recordingID", recordingID),
			slog.String("error", err.Error()),
		)
		return
	}
	defer blob.Close()

	cid, err := s.archiver.Archive(ctx, path.Base(key), blob)
	if err != nil {
		s.logger.Error("archival failed",
			slog.String("recordingID", recordingID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.recordings.MarkArchived(ctx, recordingID, cid, time.Now()); err != nil {
		s.logger.Error("archival succeeded but could not be recorded",
			slog.String("recordingID", recordingID),
			slog.String("cid", cid),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Info("recording archived",
		slog.String("recordingID", recordingID),
		slog.String("cid", cid),
	)
}

// blobKey namespaces blobs under the submitting user, keeping the client
// filename's extension and nothing else.
func blobKey(userID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" || len(ext) > 8 {
		ext = ".webm"
	}
	return fmt.Sprintf("recordings/%s/%s%s", userID, xid.New().String(), ext)
}
