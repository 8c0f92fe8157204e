package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/jonathan/resume-tracker/internal/keywords"
	"github.com/jonathan/resume-tracker/internal/matching"
	"github.com/jonathan/resume-tracker/internal/tracker"
	"github.com/jonathan/resume-tracker/internal/types"
)

// AnalysisRequest is a pasted job description plus the posting details used
// when the analysis auto-creates a job.
type AnalysisRequest struct {
	Description string `json:"description" validate:"required"`
	Title       string `json:"title" validate:"max=200"`
	Company     string `json:"company" validate:"max=200"`
	Location    string `json:"location" validate:"max=200"`
	Remote      bool   `json:"remote"`
}

// AnalysisResponse is the keyword overlap for one description. Job is set
// when the auto-create setting recorded the posting as an application.
type AnalysisResponse struct {
	types.SkillMatch
	Job *types.Job `json:"job,omitempty"`
}

// handleAnalyze handles POST /v1/analysis
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	userID, email, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req AnalysisRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}

	text := keywords.NormalizeDescription(req.Description)
	if text == "" {
		s.failure(w, r, &ErrValidation{Field: "description", Message: "is required"})
		return
	}
	profile, err := s.profiles.Load(r.Context(), userID, email)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	resp := AnalysisResponse{SkillMatch: matching.Analyze(keywords.Extract(text), profile, text)}

	settings, err := s.profiles.Settings(r.Context(), userID, email)
	if err != nil {
		log.Printf("[server] settings unavailable, skipping auto-create: %v", err)
	} else if settings.AutoCreateJobs {
		job, err := s.jobs.CreateFromAnalysis(r.Context(), userID, tracker.AnalyzedJob{
			Title:       req.Title,
			Company:     req.Company,
			Location:    req.Location,
			Remote:      req.Remote,
			Description: text,
		})
		if err != nil {
			// The analysis itself succeeded
			log.Printf("[server] auto-create job failed for %s: %v", userID, err)
		} else {
			resp.Job = job
		}
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleListCatalog handles GET /v1/catalog
func (s *Server) handleListCatalog(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.catalog)
}

// handleCatalogMatches handles GET /v1/catalog/matches, ranking every sample
// posting by how many of its skills the profile covers.
func (s *Server) handleCatalogMatches(w http.ResponseWriter, r *http.Request) {
	userID, email, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	profile, err := s.profiles.Load(r.Context(), userID, email)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, matching.RankByProfile(s.catalog, profile.SkillNames()))
}

// handleCatalogSimilar handles GET /v1/catalog/similar?title=
func (s *Server) handleCatalogSimilar(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		s.failure(w, r, &ErrValidation{Field: "title", Message: "is required"})
		return
	}
	similar := matching.SimilarByTitle(s.catalog, title)
	if similar == nil {
		similar = []types.PostingMatch{}
	}
	s.jsonResponse(w, http.StatusOK, similar)
}

// handleCatalogGap handles GET /v1/catalog/{id}/gap
func (s *Server) handleCatalogGap(w http.ResponseWriter, r *http.Request) {
	userID, email, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := r.PathValue("id")
	posting, ok := matching.FindPosting(s.catalog, id)
	if !ok {
		s.failure(w, r, &ErrNotFound{Resource: "posting", ID: id})
		return
	}
	profile, err := s.profiles.Load(r.Context(), userID, email)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"posting": posting,
		"missing": matching.SkillGap(profile.SkillNames(), posting),
	})
}
