package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/model"
)

// =========================================================================
// IN-MEMORY MOCKS
// =========================================================================
//
// One memDB holds all the tables; thin per-interface wrappers around it
// implement the repository contracts. The wrappers reproduce the same
// semantics the sqlite layer guarantees — unique constraints, the
// progress upsert, the atomic referral award — so the services under test
// see a faithful stand-in, just without SQL.

type memDB struct {
	langs     map[string]*model.Language // by ID
	tasks     []*model.Task
	recs      []*model.Recording
	progress  map[string]*model.TaskProgress // by userID+"|"+languageID
	users     map[string]*model.User         // by ID
	profiles  map[string]*model.Profile      // by ID
	referrals map[string]*model.Referral     // by referredUserID

	nextID  int
	failAll error // when set, every write returns this error

	// staleTaskCounts makes CountByLanguage report 0 that many times
	// regardless of contents — replays the window where one request's
	// count check ran before another request's starter seed committed.
	staleTaskCounts int
}

func newMemDB() *memDB {
	return &memDB{
		langs:     make(map[string]*model.Language),
		progress:  make(map[string]*model.TaskProgress),
		users:     make(map[string]*model.User),
		profiles:  make(map[string]*model.Profile),
		referrals: make(map[string]*model.Referral),
	}
}

func (db *memDB) id(prefix string) string {
	db.nextID++
	return fmt.Sprintf("%s-%d", prefix, db.nextID)
}

func progressKey(userID, languageID string) string {
	return userID + "|" + languageID
}

// --- LanguageRepository ---

type mockLanguageRepo struct{ db *memDB }

func (m *mockLanguageRepo) Create(_ context.Context, lang *model.Language) error {
	if m.db.failAll != nil {
		return m.db.failAll
	}
	for _, l := range m.db.langs {
		if l.Code == lang.Code {
			return apperror.Conflict("language", lang.Code)
		}
	}
	lang.ID = m.db.id("lang")
	lang.CreatedAt = time.Now()
	stored := *lang
	m.db.langs[lang.ID] = &stored
	return nil
}

func (m *mockLanguageRepo) GetByID(_ context.Context, id string) (*model.Language, error) {
	lang, ok := m.db.langs[id]
	if !ok {
		return nil, apperror.NotFound("language", id)
	}
	result := *lang
	return &result, nil
}

func (m *mockLanguageRepo) GetByCode(_ context.Context, code string) (*model.Language, error) {
	for _, l := range m.db.langs {
		if l.Code == code {
			result := *l
			return &result, nil
		}
	}
	return nil, apperror.NotFound("language", code)
}

func (m *mockLanguageRepo) List(_ context.Context) ([]model.Language, error) {
	result := make([]model.Language, 0, len(m.db.langs))
	for _, l := range m.db.langs {
		result = append(result, *l)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// --- TaskRepository ---

type mockTaskRepo struct{ db *memDB }

func (m *mockTaskRepo) Create(_ context.Context, task *model.Task) error {
	if m.db.failAll != nil {
		return m.db.failAll
	}
	task.ID = m.db.id("task")
	task.CreatedAt = time.Now()
	stored := *task
	m.db.tasks = append(m.db.tasks, &stored)
	return nil
}

func (m *mockTaskRepo) CreateBatch(ctx context.Context, tasks []*model.Task) error {
	// Starter sequence slots are unique per language; a duplicate batch
	// fails whole, nothing half-inserted.
	for _, t := range tasks {
		if !t.IsStarter {
			continue
		}
		for _, existing := range m.db.tasks {
			if existing.IsStarter && existing.LanguageID == t.LanguageID && existing.SequenceOrder == t.SequenceOrder {
				return apperror.AlreadyExists("starter sequence already seeded for this language")
			}
		}
	}
	for _, t := range tasks {
		if err := m.Create(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id string) (*model.Task, error) {
	for _, t := range m.db.tasks {
		if t.ID == id {
			result := *t
			return &result, nil
		}
	}
	return nil, apperror.NotFound("task", id)
}

func (m *mockTaskRepo) CountByLanguage(_ context.Context, languageID string) (int, error) {
	if m.db.staleTaskCounts > 0 {
		m.db.staleTaskCounts--
		return 0, nil
	}
	n := 0
	for _, t := range m.db.tasks {
		if t.LanguageID == languageID {
			n++
		}
	}
	return n, nil
}

func (m *mockTaskRepo) StarterTasks(_ context.Context, languageID string) ([]model.Task, error) {
	var result []model.Task
	for _, t := range m.db.tasks {
		if t.LanguageID == languageID && t.IsStarter {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SequenceOrder < result[j].SequenceOrder })
	return result, nil
}

func (m *mockTaskRepo) FirstIncompleteStarter(ctx context.Context, languageID, userID string) (*model.Task, error) {
	starters, _ := m.StarterTasks(ctx, languageID)
	for i := range starters {
		recorded := false
		for _, r := range m.db.recs {
			if r.TaskID == starters[i].ID && r.UserID == userID {
				recorded = true
				break
			}
		}
		if !recorded {
			return &starters[i], nil
		}
	}
	return nil, nil
}

func (m *mockTaskRepo) RecentTexts(_ context.Context, languageID string, limit int) ([]string, error) {
	var texts []string
	for i := len(m.db.tasks) - 1; i >= 0 && len(texts) < limit; i-- {
		if m.db.tasks[i].LanguageID == languageID {
			texts = append(texts, m.db.tasks[i].EnglishText)
		}
	}
	return texts, nil
}

func (m *mockTaskRepo) ListByLanguage(_ context.Context, languageID string, limit int) ([]model.Task, error) {
	var result []model.Task
	for i := len(m.db.tasks) - 1; i >= 0 && len(result) < limit; i-- {
		if m.db.tasks[i].LanguageID == languageID {
			result = append(result, *m.db.tasks[i])
		}
	}
	return result, nil
}

// --- RecordingRepository ---

type mockRecordingRepo struct{ db *memDB }

func (m *mockRecordingRepo) CreateWithProgress(_ context.Context, rec *model.Recording, languageID string, points int) error {
	if m.db.failAll != nil {
		return m.db.failAll
	}
	profile, ok := m.db.profiles[rec.UserID]
	if !ok {
		return apperror.NotFound("profile", rec.UserID)
	}

	rec.ID = m.db.id("rec")
	rec.CreatedAt = time.Now()
	stored := *rec
	m.db.recs = append(m.db.recs, &stored)

	key := progressKey(rec.UserID, languageID)
	p, ok := m.db.progress[key]
	if !ok {
		p = &model.TaskProgress{UserID: rec.UserID, LanguageID: languageID}
		m.db.progress[key] = p
	}
	p.RecordingsCount++
	p.CanGenerateNext = p.RecordingsCount >= model.UnlockThreshold
	now := rec.CreatedAt
	p.LastRecordingAt = &now
	p.UpdatedAt = now

	profile.Points += points
	profile.TotalRecordings++
	return nil
}

func (m *mockRecordingRepo) GetByID(_ context.Context, id string) (*model.Recording, error) {
	for _, r := range m.db.recs {
		if r.ID == id {
			result := *r
			return &result, nil
		}
	}
	return nil, apperror.NotFound("recording", id)
}

func (m *mockRecordingRepo) ListByUser(_ context.Context, userID string, limit int) ([]model.Recording, error) {
	if limit <= 0 {
		limit = 50
	}
	var result []model.Recording
	for i := len(m.db.recs) - 1; i >= 0 && len(result) < limit; i-- {
		if m.db.recs[i].UserID == userID {
			result = append(result, *m.db.recs[i])
		}
	}
	return result, nil
}

func (m *mockRecordingRepo) MarkArchived(_ context.Context, id, cid string, at time.Time) error {
	for _, r := range m.db.recs {
		if r.ID == id {
			r.ArchiveCID = cid
			r.ArchivedAt = &at
			return nil
		}
	}
	return apperror.NotFound("recording", id)
}

// --- ProgressRepository ---

type mockProgressRepo struct{ db *memDB }

func (m *mockProgressRepo) Get(_ context.Context, userID, languageID string) (*model.TaskProgress, error) {
	p, ok := m.db.progress[progressKey(userID, languageID)]
	if !ok {
		return nil, apperror.NotFound("progress", userID+"/"+languageID)
	}
	result := *p
	return &result, nil
}

func (m *mockProgressRepo) Reset(_ context.Context, userID, languageID string) error {
	if m.db.failAll != nil {
		return m.db.failAll
	}
	key := progressKey(userID, languageID)
	p, ok := m.db.progress[key]
	if !ok {
		p = &model.TaskProgress{UserID: userID, LanguageID: languageID}
		m.db.progress[key] = p
	}
	p.RecordingsCount = 0
	p.CanGenerateNext = false
	p.UpdatedAt = time.Now()
	return nil
}

// --- UserRepository ---

type mockUserRepo struct{ db *memDB }

func (m *mockUserRepo) Create(_ context.Context, user *model.User, profile *model.Profile) error {
	if m.db.failAll != nil {
		return m.db.failAll
	}
	for _, u := range m.db.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", user.Email)
		}
	}
	now := time.Now()
	user.ID = m.db.id("user")
	user.CreatedAt = now
	user.UpdatedAt = now
	profile.ID = user.ID
	profile.CreatedAt = now
	profile.UpdatedAt = now
	storedUser, storedProfile := *user, *profile
	m.db.users[user.ID] = &storedUser
	m.db.profiles[user.ID] = &storedProfile
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.db.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.db.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) GetByGoogleID(_ context.Context, googleID string) (*model.User, error) {
	for _, u := range m.db.users {
		if u.GoogleID != "" && u.GoogleID == googleID {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", googleID)
}

// --- ProfileRepository ---

type mockProfileRepo struct{ db *memDB }

func (m *mockProfileRepo) GetByID(_ context.Context, id string) (*model.Profile, error) {
	p, ok := m.db.profiles[id]
	if !ok {
		return nil, apperror.NotFound("profile", id)
	}
	result := *p
	return &result, nil
}

func (m *mockProfileRepo) GetByReferralCode(_ context.Context, code string) (*model.Profile, error) {
	for _, p := range m.db.profiles {
		if p.ReferralCode == code {
			result := *p
			return &result, nil
		}
	}
	return nil, apperror.NotFound("referral code", code)
}

func (m *mockProfileRepo) Leaderboard(_ context.Context, limit int) ([]model.Profile, error) {
	result := make([]model.Profile, 0, len(m.db.profiles))
	for _, p := range m.db.profiles {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Points > result[j].Points })
	if limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// --- ReferralRepository ---

type mockReferralRepo struct{ db *memDB }

func (m *mockReferralRepo) Create(_ context.Context, ref *model.Referral) error {
	if m.db.failAll != nil {
		return m.db.failAll
	}
	if _, exists := m.db.referrals[ref.ReferredUserID]; exists {
		return apperror.Conflict("referral", ref.ReferredUserID)
	}
	referrer, ok := m.db.profiles[ref.ReferrerID]
	if !ok {
		return apperror.NotFound("profile", ref.ReferrerID)
	}
	ref.ID = m.db.id("ref")
	ref.PointsAwarded = true
	ref.CreatedAt = time.Now()
	stored := *ref
	m.db.referrals[ref.ReferredUserID] = &stored
	referrer.Points += model.ReferralBonusPoints
	return nil
}

func (m *mockReferralRepo) GetByReferredUser(_ context.Context, referredUserID string) (*model.Referral, error) {
	ref, ok := m.db.referrals[referredUserID]
	if !ok {
		return nil, apperror.NotFound("referral", referredUserID)
	}
	result := *ref
	return &result, nil
}

// --- BlobStore + Archiver fakes ---

type mockBlobStore struct {
	blobs map[string]string // key → content
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{blobs: make(map[string]string)}
}

func (m *mockBlobStore) Save(_ context.Context, key, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.blobs[key] = string(data)
	return "/media/" + key, nil
}

func (m *mockBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("no blob at %s", key)
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

// fakeArchiver signals on done after each Archive call, so tests can wait
// for the fire-and-forget goroutine deterministically.
type fakeArchiver struct {
	cid  string
	err  error
	done chan struct{}
}

func newFakeArchiver(cid string, err error) *fakeArchiver {
	return &fakeArchiver{cid: cid, err: err, done: make(chan struct{}, 8)}
}

func (f *fakeArchiver) Archive(_ context.Context, _ string, payload io.Reader) (string, error) {
	defer func() { f.done <- struct{}{} }()
	io.Copy(io.Discard, payload)
	if f.err != nil {
		return "", f.err
	}
	return f.cid, nil
}

// audioReader fakes an uploaded audio payload.
func audioReader() io.Reader {
	return strings.NewReader("RIFF-fake-audio-bytes")
}

// testLogger discards output — service logs are noise in test runs.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
