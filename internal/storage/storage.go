// Package storage abstracts where uploaded audio lives. The server picks a
// backend at startup: local disk for development (served back under
// /media/), Google Cloud Storage for deployments.
package storage

import (
	"context"
	"io"
)

// BlobStore writes and reads opaque blobs by key.
//
// Save returns the public URL clients use to fetch the blob back. The URL
// shape is backend-specific (a /media/ path for the local store, a
// storage.googleapis.com URL for GCS) — callers treat it as opaque and
// store it verbatim on the recording.
type BlobStore interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
