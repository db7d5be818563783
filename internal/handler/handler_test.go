package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amara/mothertongue/internal/auth"
	"github.com/amara/mothertongue/internal/handler"
	"github.com/amara/mothertongue/internal/repository/sqlite"
	"github.com/amara/mothertongue/internal/service"
	"github.com/amara/mothertongue/internal/storage"
	"github.com/amara/mothertongue/internal/taskgen"
)

// testApp wires the full stack over an in-memory database — real services,
// real repos, no HTTP server. Handler tests double as wiring tests.
type testApp struct {
	router *chi.Mux
	tokens *auth.TokenService
	db     *sqlite.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(4)

	langRepo := sqlite.NewLanguageRepo(db)
	taskRepo := sqlite.NewTaskRepo(db)
	recRepo := sqlite.NewRecordingRepo(db)
	progressRepo := sqlite.NewProgressRepo(db)
	userRepo := sqlite.NewUserRepo(db)
	profileRepo := sqlite.NewProfileRepo(db)
	referralRepo := sqlite.NewReferralRepo(db)

	pipeline := taskgen.NewPipeline(nil, taskgen.NewFallbackGenerator(1), logger)

	languageSvc := service.NewLanguageService(langRepo, logger)
	taskSvc := service.NewTaskService(taskRepo, langRepo, progressRepo, pipeline, logger)
	recordingSvc := service.NewRecordingService(recRepo, taskRepo, store, nil, logger)
	profileSvc := service.NewProfileService(profileRepo, logger)
	referralSvc := service.NewReferralService(referralRepo, profileRepo, logger)
	authSvc := service.NewAuthService(userRepo, profileRepo, referralSvc, tokens, passwords, logger)

	authH := handler.NewAuthHandler(authSvc, profileSvc, nil, logger)
	langH := handler.NewLanguageHandler(languageSvc, taskSvc)
	taskH := handler.NewTaskHandler(taskSvc)
	recH := handler.NewRecordingHandler(recordingSvc)
	profH := handler.NewProfileHandler(profileSvc)

	require.NoError(t, languageSvc.Seed(context.Background()))

	r := chi.NewRouter()
	r.Post("/auth/signup", authH.HandleSignUp)
	r.Post("/auth/login", authH.HandleLogin)
	r.Post("/auth/logout", authH.HandleLogout)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/api/me", authH.HandleMe)
		r.Get("/api/languages/{id}/progress", langH.HandleProgress)
		r.Post("/api/tasks/generate", taskH.HandleGenerate)
		r.Post("/api/recordings", recH.HandleSubmit)
		r.Get("/api/recordings", recH.HandleList)
		r.Get("/api/recordings/{id}", recH.HandleGet)
	})
	r.Get("/api/languages", langH.HandleList)
	r.Get("/api/languages/{id}/tasks", langH.HandleTasks)
	r.Get("/api/tasks/{id}", taskH.HandleGet)
	r.Get("/api/leaderboard", profH.HandleLeaderboard)

	return &testApp{router: r, tokens: tokens, db: db}
}

// do sends a request, attaching the auth cookie when token is non-empty.
func (app *testApp) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	}
	rr := httptest.NewRecorder()
	app.router.ServeHTTP(rr, req)
	return rr
}

func (app *testApp) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	require.NoError(t, json.NewEncoder(&body).Encode(payload))
	return app.do(t, method, path, token, &body, "application/json")
}

// signup creates an account and returns (userID, token).
func (app *testApp) signup(t *testing.T, email string) (string, string) {
	t.Helper()
	rr := app.doJSON(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"email":    email,
		"password": "long-enough-pw",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

	var token string
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			token = c.Value
		}
	}
	require.NotEmpty(t, token, "signup set no token cookie")
	return resp.User.ID, token
}

// firstLanguageID pulls any language ID from the seeded catalog.
func (app *testApp) firstLanguageID(t *testing.T) string {
	t.Helper()
	rr := app.do(t, http.MethodGet, "/api/languages", "", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Languages []struct {
			ID string `json:"id"`
		} `json:"languages"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotEmpty(t, resp.Languages)
	return resp.Languages[0].ID
}

// submitRecording posts a multipart recording for the task.
func (app *testApp) submitRecording(t *testing.T, token, taskID string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("taskId", taskID))
	part, err := mw.CreateFormFile("audio", "take.webm")
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader("fake-audio-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rr := app.do(t, http.MethodPost, "/api/recordings", token, &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)

	t.Run("signup then me", func(t *testing.T) {
		_, token := app.signup(t, "flow@example.com")

		rr := app.do(t, http.MethodGet, "/api/me", token, nil, "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "flow@example.com")
	})

	t.Run("login", func(t *testing.T) {
		rr := app.doJSON(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "flow@example.com",
			"password": "long-enough-pw",
		})
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := app.doJSON(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "flow@example.com",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("protected route without token", func(t *testing.T) {
		rr := app.do(t, http.MethodGet, "/api/me", "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestGenerateFlow(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signup(t, "generator@example.com")
	langID := app.firstLanguageID(t)

	// First request against an empty language seeds the starters and
	// returns starter #1.
	rr := app.doJSON(t, http.MethodPost, "/api/tasks/generate", token, map[string]any{"languageId": langID})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		Task struct {
			ID            string `json:"id"`
			EnglishText   string `json:"englishText"`
			SequenceOrder int    `json:"sequenceOrder"`
			IsStarter     bool   `json:"isStarter"`
		} `json:"task"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.Equal(t, "Hello", created.Task.EnglishText)
	assert.Equal(t, 1, created.Task.SequenceOrder)
	assert.True(t, created.Task.IsStarter)

	// A second request is refused: starters pending.
	rr = app.doJSON(t, http.MethodPost, "/api/tasks/generate", token, map[string]any{"languageId": langID})
	require.Equal(t, http.StatusConflict, rr.Code)

	var pending struct {
		Error       string `json:"error"`
		StarterTask struct {
			ID            string `json:"id"`
			SequenceOrder int    `json:"sequenceOrder"`
		} `json:"starterTask"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&pending))
	assert.Equal(t, "starter_pending", pending.Error)
	assert.Equal(t, 1, pending.StarterTask.SequenceOrder)

	// Complete all 20 starters.
	rr = app.do(t, http.MethodGet, "/api/languages/"+langID+"/tasks", "", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var listing struct {
		StarterTasks []struct {
			ID string `json:"id"`
		} `json:"starterTasks"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&listing))
	require.Len(t, listing.StarterTasks, 20)
	for _, st := range listing.StarterTasks {
		app.submitRecording(t, token, st.ID)
	}

	// Starters done and 20 recordings on the counter: generation proceeds.
	rr = app.doJSON(t, http.MethodPost, "/api/tasks/generate", token, map[string]any{"languageId": langID})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	taskID := created.Task.ID
	assert.False(t, created.Task.IsStarter)

	// One recording in the new cycle: locked with recordingsNeeded 1.
	app.submitRecording(t, token, taskID)
	rr = app.doJSON(t, http.MethodPost, "/api/tasks/generate", token, map[string]any{"languageId": langID})
	require.Equal(t, http.StatusConflict, rr.Code)

	var locked struct {
		Error            string `json:"error"`
		RecordingsNeeded int    `json:"recordingsNeeded"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&locked))
	assert.Equal(t, "locked", locked.Error)
	assert.Equal(t, 1, locked.RecordingsNeeded)

	// Force bypasses the lock.
	rr = app.doJSON(t, http.MethodPost, "/api/tasks/generate", token, map[string]any{"languageId": langID, "force": true})
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	// Second recording in a cycle unlocks normally.
	app.submitRecording(t, token, taskID)
	app.submitRecording(t, token, taskID)
	rr = app.doJSON(t, http.MethodPost, "/api/tasks/generate", token, map[string]any{"languageId": langID})
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestProgressEndpoint(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signup(t, "progress@example.com")
	langID := app.firstLanguageID(t)

	rr := app.doJSON(t, http.MethodPost, "/api/tasks/generate", token, map[string]any{"languageId": langID})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = app.do(t, http.MethodGet, "/api/languages/"+langID+"/progress", token, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		State    string `json:"state"`
		Progress struct {
			RecordingsCount int  `json:"recordingsCount"`
			CanGenerateNext bool `json:"canGenerateNext"`
		} `json:"progress"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "needs_starter", resp.State)
	assert.Equal(t, 0, resp.Progress.RecordingsCount)
	assert.False(t, resp.Progress.CanGenerateNext)
}

func TestRecordingList(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signup(t, "lister@example.com")
	langID := app.firstLanguageID(t)

	rr := app.doJSON(t, http.MethodPost, "/api/tasks/generate", token, map[string]any{"languageId": langID})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created struct {
		Task struct {
			ID string `json:"id"`
		} `json:"task"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))

	app.submitRecording(t, token, created.Task.ID)

	rr = app.do(t, http.MethodGet, "/api/recordings", token, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var listing struct {
		Recordings []struct {
			ID       string `json:"id"`
			AudioURL string `json:"audioUrl"`
		} `json:"recordings"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&listing))
	require.Len(t, listing.Recordings, 1)
	assert.True(t, strings.HasPrefix(listing.Recordings[0].AudioURL, "/media/recordings/"))
	assert.NotEmpty(t, listing.Recordings[0].ID)

	t.Run("get by id", func(t *testing.T) {
		rr := app.do(t, http.MethodGet, "/api/recordings/"+listing.Recordings[0].ID, token, nil, "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), listing.Recordings[0].ID)
	})

	t.Run("get by id as another user", func(t *testing.T) {
		_, otherToken := app.signup(t, "snoop@example.com")
		rr := app.do(t, http.MethodGet, "/api/recordings/"+listing.Recordings[0].ID, otherToken, nil, "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestLeaderboard(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signup(t, "leader@example.com")
	langID := app.firstLanguageID(t)

	rr := app.doJSON(t, http.MethodPost, "/api/tasks/generate", token, map[string]any{"languageId": langID})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created struct {
		Task struct {
			ID string `json:"id"`
		} `json:"task"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	app.submitRecording(t, token, created.Task.ID)

	rr = app.do(t, http.MethodGet, "/api/leaderboard", "", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var board struct {
		Leaderboard []struct {
			DisplayName string `json:"displayName"`
			Points      int    `json:"points"`
		} `json:"leaderboard"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&board))
	require.Len(t, board.Leaderboard, 1)
	// Starter #1 is a beginner task.
	assert.Equal(t, 10, board.Leaderboard[0].Points)
}

func TestGenerateValidation(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signup(t, "invalid@example.com")

	t.Run("missing languageId", func(t *testing.T) {
		rr := app.doJSON(t, http.MethodPost, "/api/tasks/generate", token, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
	t.Run("unknown language", func(t *testing.T) {
		rr := app.doJSON(t, http.MethodPost, "/api/tasks/generate", token, map[string]any{"languageId": "nope"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
	t.Run("malformed body", func(t *testing.T) {
		rr := app.do(t, http.MethodPost, "/api/tasks/generate", token, strings.NewReader("{oops"), "application/json")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
