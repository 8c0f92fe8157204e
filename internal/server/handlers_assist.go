package server

import (
	"net/http"

	"github.com/jonathan/resume-tracker/internal/assist"
	"github.com/jonathan/resume-tracker/internal/types"
)

// handleAssistSummary handles POST /v1/assist/summary. Requests without a
// profile use the caller's stored profile.
func (s *Server) handleAssistSummary(w http.ResponseWriter, r *http.Request) {
	var req assist.SummaryRequest
	if !s.decodeAssist(w, r, &req, &req.Profile) {
		return
	}
	summaries, err := s.assist.GenerateSummary(r.Context(), req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string][]string{"summaries": summaries})
}

// handleAssistBullets handles POST /v1/assist/bullets
func (s *Server) handleAssistBullets(w http.ResponseWriter, r *http.Request) {
	var req assist.BulletsRequest
	if !s.decodeAssist(w, r, &req, nil) {
		return
	}
	bullets, err := s.assist.GenerateBullets(r.Context(), req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string][]string{"bullets": bullets})
}

// handleAssistCoverLetter handles POST /v1/assist/cover-letter
func (s *Server) handleAssistCoverLetter(w http.ResponseWriter, r *http.Request) {
	var req assist.CoverLetterRequest
	if !s.decodeAssist(w, r, &req, &req.Profile) {
		return
	}
	letter, err := s.assist.GenerateCoverLetter(r.Context(), req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"coverLetter": letter})
}

// handleAssistSkills handles POST /v1/assist/skills
func (s *Server) handleAssistSkills(w http.ResponseWriter, r *http.Request) {
	var req assist.SkillsRequest
	if !s.decodeAssist(w, r, &req, &req.Profile) {
		return
	}
	skills, err := s.assist.SuggestSkills(r.Context(), req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string][]string{"skills": skills})
}

// decodeAssist decodes and validates an assist request. When profile points
// at a nil profile it is filled from the store. It writes the error response
// itself and reports false on failure.
func (s *Server) decodeAssist(w http.ResponseWriter, r *http.Request, req any, profile **types.Profile) bool {
	userID, email, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	if !s.assist.Available() {
		s.failure(w, r, assist.ErrUnavailable)
		return false
	}
	if err := decodeAndValidate(w, r, req); err != nil {
		s.failure(w, r, err)
		return false
	}
	if profile != nil && *profile == nil {
		stored, err := s.profiles.Load(r.Context(), userID, email)
		if err != nil {
			s.failure(w, r, err)
			return false
		}
		*profile = stored
	}
	return true
}
