package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// GCSStore writes blobs to a Google Cloud Storage bucket. Objects are
// assumed publicly readable (bucket-level IAM), so the public URL is just
// the canonical storage.googleapis.com form.
type GCSStore struct {
	client *storage.Client
	bucket string
}

var _ BlobStore = (*GCSStore)(nil)

// NewGCSStore dials GCS with ambient credentials (GOOGLE_APPLICATION_CREDENTIALS
// or workload identity).
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: creating gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Save(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("storage: writing gcs object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: closing gcs writer for %s: %w", key, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key), nil
}

func (s *GCSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: opening gcs object %s: %w", key, err)
	}
	return rc, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
