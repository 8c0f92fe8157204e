package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/resume-tracker/internal/schemas"
	"github.com/jonathan/resume-tracker/internal/types"
)

// handleGetProfile handles GET /v1/profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
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
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleSaveProfile handles PUT /v1/profile. The body is checked against the
// profile schema before it reaches the store.
func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	userID, _, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if strings.TrimSpace(string(body)) == "" {
		s.failure(w, r, &ErrValidation{Field: "body", Message: "request body is required"})
		return
	}
	profile, err := schemas.ParseProfile(body)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	saved, err := s.profiles.Save(r.Context(), userID, profile)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, saved)
}

// handleResetProfile handles DELETE /v1/profile
func (s *Server) handleResetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	profile, err := s.profiles.Reset(r.Context(), userID)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleUpdatePersonal handles PUT /v1/profile/personal
func (s *Server) handleUpdatePersonal(w http.ResponseWriter, r *http.Request) {
	var info types.PersonalInfo
	s.updateSection(w, r, &info, func(userID uuid.UUID, email string) (*types.Profile, error) {
		return s.profiles.UpdatePersonal(r.Context(), userID, email, info)
	})
}

// handleUpdateExperience handles PUT /v1/profile/experience
func (s *Server) handleUpdateExperience(w http.ResponseWriter, r *http.Request) {
	var experience []types.Experience
	s.updateSection(w, r, &experience, func(userID uuid.UUID, email string) (*types.Profile, error) {
		return s.profiles.UpdateExperience(r.Context(), userID, email, experience)
	})
}

// handleUpdateEducation handles PUT /v1/profile/education
func (s *Server) handleUpdateEducation(w http.ResponseWriter, r *http.Request) {
	var education []types.Education
	s.updateSection(w, r, &education, func(userID uuid.UUID, email string) (*types.Profile, error) {
		return s.profiles.UpdateEducation(r.Context(), userID, email, education)
	})
}

// handleUpdateSkills handles PUT /v1/profile/skills
func (s *Server) handleUpdateSkills(w http.ResponseWriter, r *http.Request) {
	var skills []types.Skill
	s.updateSection(w, r, &skills, func(userID uuid.UUID, email string) (*types.Profile, error) {
		return s.profiles.UpdateSkills(r.Context(), userID, email, skills)
	})
}

// handleAddSkill handles POST /v1/profile/skills
func (s *Server) handleAddSkill(w http.ResponseWriter, r *http.Request) {
	userID, email, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var skill types.Skill
	if err := decodeJSON(w, r, &skill); err != nil {
		s.failure(w, r, err)
		return
	}
	profile, err := s.profiles.AddSkill(r.Context(), userID, email, skill)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, profile)
}

// updateSection decodes a section body into dst and applies it with apply.
func (s *Server) updateSection(w http.ResponseWriter, r *http.Request, dst any, apply func(uuid.UUID, string) (*types.Profile, error)) {
	userID, email, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := decodeJSON(w, r, dst); err != nil {
		s.failure(w, r, err)
		return
	}
	profile, err := apply(userID, email)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleGetSettings handles GET /v1/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID, email, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	settings, err := s.profiles.Settings(r.Context(), userID, email)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, settings)
}

// handleSaveSettings handles PUT /v1/settings
func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	userID, email, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	settings, err := schemas.ParseSettings(body)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	// Make sure the profile row exists before the settings upsert
	if _, err := s.profiles.Settings(r.Context(), userID, email); err != nil {
		s.failure(w, r, err)
		return
	}
	saved, err := s.profiles.SaveSettings(r.Context(), userID, settings)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, saved)
}
