package model

import "time"

// Recording is one audio submission for a task by a user.
//
// Recordings are immutable once created. The only fields written after
// insert are the archival pair (ArchiveCID, ArchivedAt), populated
// asynchronously if the copy to content-addressed storage succeeds.
// A user may submit multiple recordings for the same task.
type Recording struct {
	ID              string     `json:"id"`
	TaskID          string     `json:"taskId"`
	UserID          string     `json:"userId"`
	AudioURL        string     `json:"audioUrl"` // publicly readable blob reference
	Notes           string     `json:"notes"`
	DurationSeconds int        `json:"durationSeconds"`
	ArchiveCID      string     `json:"archiveCid,omitempty"`
	ArchivedAt      *time.Time `json:"archivedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}
