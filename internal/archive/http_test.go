package archive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPArchiver_Archive(t *testing.T) {
	var gotPath, gotAuth, gotFile string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		gotFile = string(data)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cid":"bafyexamplecid"}`))
	}))
	defer server.Close()

	archiver, err := NewHTTPArchiver(Config{BaseURL: server.URL, APIKey: "secret"})
	require.NoError(t, err)

	cid, err := archiver.Archive(context.Background(), "rec.webm", strings.NewReader("audio-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "bafyexamplecid", cid)
	assert.Equal(t, "/api/v0/add", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "audio-bytes", gotFile)
}

func TestHTTPArchiver_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "pin queue full", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	archiver, err := NewHTTPArchiver(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = archiver.Archive(context.Background(), "rec.webm", strings.NewReader("x"))
	assert.ErrorContains(t, err, "503")
}

func TestHTTPArchiver_EmptyCID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	archiver, err := NewHTTPArchiver(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = archiver.Archive(context.Background(), "rec.webm", strings.NewReader("x"))
	assert.ErrorContains(t, err, "empty cid")
}

func TestNewHTTPArchiver_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPArchiver(Config{})
	assert.Error(t, err)
}
