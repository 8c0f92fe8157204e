package server

import (
	"net/http"
	"testing"

	"github.com/jonathan/resume-tracker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_ReactAndPython(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/v1/profile/skills", types.Skill{Name: "React", Category: types.SkillFramework})

	w := env.do(t, http.MethodPost, "/v1/analysis", AnalysisRequest{
		Description: "We need a React and Python developer",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[AnalysisResponse](t, w)
	assert.Equal(t, []string{"react"}, resp.Relevant)
	assert.Contains(t, resp.Missing, "python")
	assert.Equal(t, []string{"React"}, resp.ProfileSkillsInText)
	assert.Nil(t, resp.Job)
	assert.Empty(t, env.jobs.jobs)
}

func TestAnalyze_HTMLDescription(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/analysis", AnalysisRequest{
		Description: "<p>Experience with <b>Kubernetes</b> required</p>",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeBody[AnalysisResponse](t, w).Missing, "kubernetes")
}

func TestAnalyze_AutoCreatesJob(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPut, "/v1/settings", types.Settings{AutoCreateJobs: true})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/v1/analysis", AnalysisRequest{
		Description: "Golang and Docker",
		Title:       "Backend Engineer",
		Company:     "Globex",
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[AnalysisResponse](t, w)
	require.NotNil(t, resp.Job)
	assert.Equal(t, "Backend Engineer", resp.Job.Title)
	assert.Equal(t, types.StatusApplied, resp.Job.Status)
	assert.Len(t, env.jobs.jobs, 1)
}

func TestAnalyze_RequiresDescription(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []any{AnalysisRequest{}, AnalysisRequest{Description: "<br/>  "}, ""} {
		w := env.do(t, http.MethodPost, "/v1/analysis", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestCatalog_List(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/catalog", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]types.SamplePosting](t, w), 10)
}

func TestCatalog_Matches(t *testing.T) {
	env := newTestEnv(t)
	skills := []types.Skill{}
	for _, name := range []string{"JavaScript", "TypeScript", "React", "CSS", "HTML", "Testing"} {
		skills = append(skills, types.Skill{Name: name, Category: types.SkillTechnical})
	}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/v1/profile/skills", skills).Code)

	w := env.do(t, http.MethodGet, "/v1/catalog/matches", nil)

	require.Equal(t, http.StatusOK, w.Code)
	matches := decodeBody[[]types.PostingMatch](t, w)
	require.Len(t, matches, 10)
	assert.Equal(t, "frontend-engineer", matches[0].Posting.ID)
	assert.Equal(t, 100, matches[0].Score)
}

func TestCatalog_Similar(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/catalog/similar?title=Frontend%20Engineer", nil)

	require.Equal(t, http.StatusOK, w.Code)
	similar := decodeBody[[]types.PostingMatch](t, w)
	require.NotEmpty(t, similar)
	assert.Equal(t, "senior-frontend-engineer", similar[0].Posting.ID)
	assert.Equal(t, 67, similar[0].Score)

	w = env.do(t, http.MethodGet, "/v1/catalog/similar?title=Astronaut", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = env.do(t, http.MethodGet, "/v1/catalog/similar", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type gapResponse struct {
	Posting types.SamplePosting `json:"posting"`
	Missing []string            `json:"missing"`
}

func TestCatalog_Gap(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/v1/profile/skills", types.Skill{Name: "React", Category: types.SkillFramework})

	w := env.do(t, http.MethodGet, "/v1/catalog/frontend-engineer/gap", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody[gapResponse](t, w)
	assert.Equal(t, "Frontend Engineer", body.Posting.Title)
	assert.Equal(t, []string{"javascript", "typescript", "css", "html", "testing"}, body.Missing)

	w = env.do(t, http.MethodGet, "/v1/catalog/astronaut/gap", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
