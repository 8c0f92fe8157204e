package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-tracker/internal/assist"
	"github.com/jonathan/resume-tracker/internal/config"
	"github.com/jonathan/resume-tracker/internal/db"
	"github.com/jonathan/resume-tracker/internal/llm"
	"github.com/jonathan/resume-tracker/internal/pdfapi"
	"github.com/jonathan/resume-tracker/internal/profile"
	"github.com/jonathan/resume-tracker/internal/server/ratelimit"
	"github.com/jonathan/resume-tracker/internal/storage"
	"github.com/jonathan/resume-tracker/internal/tracker"
	"github.com/jonathan/resume-tracker/internal/types"
	"github.com/stretchr/testify/require"
)

// memoryProfiles implements profile.Store.
type memoryProfiles struct {
	mu       sync.Mutex
	data     map[uuid.UUID][]byte
	settings map[uuid.UUID][]byte
	fail     error
}

func (m *memoryProfiles) EnsureProfile(_ context.Context, userID uuid.UUID, email string) (*db.ProfileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	if _, ok := m.data[userID]; !ok {
		m.data[userID] = []byte(`{}`)
		m.settings[userID] = []byte(`{}`)
	}
	return &db.ProfileRecord{ID: userID, Email: email, Data: m.data[userID], Settings: m.settings[userID]}, nil
}

func (m *memoryProfiles) SaveProfileData(_ context.Context, userID uuid.UUID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.data[userID] = data
	return nil
}

func (m *memoryProfiles) SaveSettings(_ context.Context, userID uuid.UUID, settings []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.settings[userID] = settings
	return nil
}

// memoryJobs implements tracker.JobStore.
type memoryJobs struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]types.Job
}

func (m *memoryJobs) ListJobs(_ context.Context, userID uuid.UUID) ([]types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []types.Job{}
	for _, j := range m.jobs {
		if j.UserID == userID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *memoryJobs) GetJob(_ context.Context, userID, jobID uuid.UUID) (*types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || j.UserID != userID {
		return nil, nil
	}
	return &j, nil
}

func (m *memoryJobs) InsertJob(_ context.Context, job *types.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memoryJobs) UpdateJob(_ context.Context, job *types.Job) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return false, nil
	}
	m.jobs[job.ID] = *job
	return true, nil
}

func (m *memoryJobs) UpdateJobStatus(_ context.Context, _, jobID uuid.UUID, status types.JobStatus, updatedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return false, nil
	}
	j.Status, j.UpdatedAt = status, updatedAt
	m.jobs[jobID] = j
	return true, nil
}

func (m *memoryJobs) UpdateJobAttachments(_ context.Context, _, jobID uuid.UUID, attachments []types.JobAttachment, updatedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return false, nil
	}
	j.Attachments, j.UpdatedAt = attachments, updatedAt
	m.jobs[jobID] = j
	return true, nil
}

func (m *memoryJobs) DeleteJob(_ context.Context, _, jobID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[jobID]; !ok {
		return false, nil
	}
	delete(m.jobs, jobID)
	return true, nil
}

// memoryFiles implements tracker.ObjectStore.
type memoryFiles struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *memoryFiles) Upload(_ context.Context, jobID, objectID uuid.UUID, filename, mimeType string, body []byte) (*storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s/%s-%s", jobID, objectID, storage.SanitizeFilename(filename))
	url := "https://files.example.com/" + key
	f.objects[url] = body
	return &storage.Object{Key: key, URL: url, Size: int64(len(body)), MimeType: mimeType}, nil
}

func (f *memoryFiles) Get(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[url]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (f *memoryFiles) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, url)
	return nil
}

func (f *memoryFiles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// fakeLLM answers every JSON completion with response.
type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) GenerateJSON(_ context.Context, _ llm.Request) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) Close() error { return nil }

type testEnv struct {
	server   *Server
	handler  http.Handler
	jwt      *JWTService
	userID   uuid.UUID
	token    string
	profiles *memoryProfiles
	jobs     *memoryJobs
	files    *memoryFiles
	llm      *fakeLLM
}

type testOption func(*testEnv, *Deps)

func withPDFAPI(url string) testOption {
	return func(_ *testEnv, d *Deps) { d.PDF = pdfapi.NewClient(url, nil) }
}

func withoutAssist() testOption {
	return func(_ *testEnv, d *Deps) { d.Assist = assist.NewService(nil, nil, 0) }
}

func withoutFiles() testOption {
	return func(e *testEnv, d *Deps) { d.Jobs = tracker.NewService(e.jobs, nil, nil) }
}

func withLimiter(cfg *ratelimit.Config) testOption {
	return func(_ *testEnv, d *Deps) { d.Limiter = ratelimit.NewLimiter(cfg) }
}

func newTestEnv(t *testing.T, opts ...testOption) *testEnv {
	t.Helper()

	env := &testEnv{
		userID:   uuid.New(),
		profiles: &memoryProfiles{data: map[uuid.UUID][]byte{}, settings: map[uuid.UUID][]byte{}},
		jobs:     &memoryJobs{jobs: map[uuid.UUID]types.Job{}},
		files:    &memoryFiles{objects: map[string][]byte{}},
		llm:      &fakeLLM{response: `[]`},
	}
	env.jwt = NewJWTService(&config.JWTConfig{Secret: testJWTSecret, ExpirationHours: 1})

	deps := Deps{
		Profiles: profile.NewService(env.profiles, nil),
		Jobs:     tracker.NewService(env.jobs, env.files, nil),
		Assist:   assist.NewService(env.llm, nil, 0),
		Tokens:   env.jwt.AsTokenValidator(),
		Limiter:  ratelimit.NewLimiter(&ratelimit.Config{Enabled: false}),
	}
	for _, opt := range opts {
		opt(env, &deps)
	}

	srv, err := New(Config{Port: 0}, deps)
	require.NoError(t, err)
	t.Cleanup(srv.rateLimiter.Stop)

	token, err := env.jwt.GenerateToken(env.userID, "ada@example.com")
	require.NoError(t, err)

	env.server = srv
	env.handler = srv.Handler()
	env.token = token
	return env
}

// do sends an authenticated request with an optional JSON body.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+e.token)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
