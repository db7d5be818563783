package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Config holds the archival service settings, read from the environment
// in main.
type Config struct {
	BaseURL string        // e.g. "https://archive.example.org"
	APIKey  string
	Timeout time.Duration // hard bound on the whole upload
}

// HTTPArchiver talks to an IPFS-style pinning service: POST the payload
// as a multipart upload, get back the content identifier it was pinned
// under.
type HTTPArchiver struct {
	config Config
	http   *http.Client
}

var _ Archiver = (*HTTPArchiver)(nil)

// NewHTTPArchiver creates an HTTPArchiver.
func NewHTTPArchiver(cfg Config) (*HTTPArchiver, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("archive: base URL is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &HTTPArchiver{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type addResponse struct {
	CID string `json:"cid"`
}

// Archive uploads the payload and returns its content identifier.
func (a *HTTPArchiver) Archive(ctx context.Context, name string, payload io.Reader) (string, error) {
	// Stream the multipart body through a pipe so large recordings never
	// get buffered whole in memory.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, payload); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/api/v0/add", pr)
	if err != nil {
		return "", fmt.Errorf("archive: building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if a.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("archive: uploading %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("archive: service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed addResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("archive: decoding response: %w", err)
	}
	if parsed.CID == "" {
		return "", fmt.Errorf("archive: service returned empty cid")
	}
	return parsed.CID, nil
}
