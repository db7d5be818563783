// Package archive copies recordings to a content-addressed long-term
// store. Archival is fire-and-forget: it runs after the submission
// commits, and its failure is logged, never surfaced to the user.
package archive

import (
	"context"
	"io"
)

// Archiver pushes a raw payload to content-addressed storage and returns
// the content identifier it was stored under.
type Archiver interface {
	Archive(ctx context.Context, name string, payload io.Reader) (string, error)
}
