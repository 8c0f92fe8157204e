package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jonathan/resume-tracker/internal/layout"
	"github.com/jonathan/resume-tracker/internal/pdfapi"
	"github.com/jonathan/resume-tracker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListThemes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/themes", nil)

	require.Equal(t, http.StatusOK, w.Code)
	themes := decodeBody[[]types.ColorTheme](t, w)
	assert.Len(t, themes, len(types.Themes))
	assert.Equal(t, types.DefaultThemeID, themes[0].ID)
}

func seedProfile(t *testing.T, env *testEnv) {
	t.Helper()
	w := env.do(t, http.MethodPut, "/v1/profile/personal", types.PersonalInfo{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Summary: "Engineer who ships.",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(t, http.MethodPut, "/v1/profile/skills", []types.Skill{{Name: "Go", Category: types.SkillLanguage}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestResumeLayout_TextMeasurer(t *testing.T) {
	env := newTestEnv(t)
	seedProfile(t, env)

	w := env.do(t, http.MethodPost, "/v1/resume/layout", ResumeRequest{
		Theme:       "emerald",
		ExtraSkills: []string{"Kubernetes"},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	plan := decodeBody[layout.Plan](t, w)
	assert.True(t, plan.Fits)
	assert.LessOrEqual(t, plan.Scale, 1.0)
	assert.GreaterOrEqual(t, plan.Scale, layout.MinScale)
	assert.Equal(t, "#047857", plan.Theme.Hex)
	require.NotEmpty(t, plan.Sections)
	assert.Equal(t, "Ada Lovelace", plan.Sections[0].Name)
}

func TestResumeLayout_EmptyBodyUsesDefaults(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/resume/layout", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, types.DefaultThemeID, decodeBody[layout.Plan](t, w).Theme.ID)
}

func TestResumeLayout_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
	}{
		{"unknown theme", ResumeRequest{Theme: "plaid"}},
		{"bad custom color", ResumeRequest{Theme: types.CustomThemeID, CustomColor: "blue"}},
		{"unknown measurer", ResumeRequest{Measurer: "ruler"}},
		{"malformed", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/v1/resume/layout", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestResumeLayout_BrowserMeasurerWithoutBrowser(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/resume/layout", ResumeRequest{Measurer: "browser"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// fakePDFAPI records render requests and answers with status.
type fakePDFAPI struct {
	mu       sync.Mutex
	status   int
	requests []pdfapi.GenerateRequest
}

func (f *fakePDFAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req pdfapi.GenerateRequest
	_ = json.Unmarshal(body, &req)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.status != http.StatusOK {
		http.Error(w, "renderer exploded", f.status)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write([]byte("%PDF-1.4 fake"))
}

func TestResumePDF_Remote(t *testing.T) {
	api := &fakePDFAPI{status: http.StatusOK}
	ts := httptest.NewServer(api)
	defer ts.Close()
	env := newTestEnv(t, withPDFAPI(ts.URL))
	seedProfile(t, env)

	w := env.do(t, http.MethodPost, "/v1/resume/pdf", ResumeRequest{Theme: "emerald"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Ada_Lovelace_resume.pdf")
	assert.Equal(t, "%PDF-1.4 fake", w.Body.String())

	require.Len(t, api.requests, 1)
	assert.Equal(t, "Ada Lovelace", api.requests[0].Name)
	assert.Equal(t, "#047857", api.requests[0].HeaderColor)
}

func TestResumePDF_RemoteFailure(t *testing.T) {
	api := &fakePDFAPI{status: http.StatusInternalServerError}
	ts := httptest.NewServer(api)
	defer ts.Close()
	env := newTestEnv(t, withPDFAPI(ts.URL))

	w := env.do(t, http.MethodPost, "/v1/resume/pdf", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "remote renderer failed")
}

func TestResumePDF_NoRenderer(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/resume/pdf", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "local renderer without a browser")

	w = env.do(t, http.MethodPost, "/v1/resume/pdf", ResumeRequest{Renderer: "remote"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "remote renderer without a client")
}
