package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/jonathan/resume-tracker/internal/config"
	"github.com/jonathan/resume-tracker/internal/layout"
	"github.com/jonathan/resume-tracker/internal/pdfapi"
	"github.com/jonathan/resume-tracker/internal/rendering"
	"github.com/jonathan/resume-tracker/internal/types"
	"github.com/jonathan/resume-tracker/internal/validation"
)

// ResumeRequest selects how the stored profile is turned into a resume. All
// fields are optional.
type ResumeRequest struct {
	Theme       string   `json:"theme"`
	CustomColor string   `json:"customColor"`
	ExtraSkills []string `json:"extraSkills" validate:"max=30,dive,max=60"`
	Measurer    string   `json:"measurer" validate:"omitempty,oneof=text browser"`
	Renderer    string   `json:"renderer" validate:"omitempty,oneof=local remote"`
}

// RenderError wraps a failure of a PDF renderer.
type RenderError struct {
	Renderer string
	Cause    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s renderer failed: %v", e.Renderer, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// handleListThemes handles GET /v1/themes
func (s *Server) handleListThemes(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, types.Themes)
}

// handleResumeLayout handles POST /v1/resume/layout and returns the fitted
// layout plan without rendering it.
func (s *Server) handleResumeLayout(w http.ResponseWriter, r *http.Request) {
	req, profile, theme, ok := s.resumeInputs(w, r)
	if !ok {
		return
	}
	plan, err := s.planResume(r.Context(), profile, req, theme)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, plan)
}

// handleResumePDF handles POST /v1/resume/pdf
func (s *Server) handleResumePDF(w http.ResponseWriter, r *http.Request) {
	req, profile, theme, ok := s.resumeInputs(w, r)
	if !ok {
		return
	}

	renderer := req.Renderer
	if renderer == "" {
		renderer = config.RendererLocal
		if s.pdf != nil {
			renderer = config.RendererRemote
		}
	}

	var pdf []byte
	var err error
	switch renderer {
	case config.RendererRemote:
		pdf, err = s.renderRemote(r.Context(), profile, req, theme)
	default:
		pdf, err = s.renderLocal(r.Context(), w, profile, req, theme)
	}
	if err != nil {
		s.failure(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+resumeFilename(profile)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		log.Printf("[server] failed to write pdf: %v", err)
	}
}

// resumeInputs decodes the request and loads the caller's profile. It writes
// the error response itself and reports ok=false on failure.
func (s *Server) resumeInputs(w http.ResponseWriter, r *http.Request) (ResumeRequest, *types.Profile, types.ColorTheme, bool) {
	var req ResumeRequest
	userID, email, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return req, nil, types.ColorTheme{}, false
	}

	body, err := readBody(w, r)
	if err != nil {
		s.failure(w, r, err)
		return req, nil, types.ColorTheme{}, false
	}
	if strings.TrimSpace(string(body)) != "" {
		if err := decodeBytes(body, &req); err != nil {
			s.failure(w, r, err)
			return req, nil, types.ColorTheme{}, false
		}
	}
	if err := validateStruct(&req); err != nil {
		s.failure(w, r, err)
		return req, nil, types.ColorTheme{}, false
	}

	theme, err := types.ResolveTheme(req.Theme, req.CustomColor)
	if err != nil {
		s.failure(w, r, &ErrValidation{Field: "theme", Message: err.Error()})
		return req, nil, types.ColorTheme{}, false
	}
	profile, err := s.profiles.Load(r.Context(), userID, email)
	if err != nil {
		s.failure(w, r, err)
		return req, nil, types.ColorTheme{}, false
	}
	return req, profile, theme, true
}

// planResume fits the profile onto one page with the requested measurer.
func (s *Server) planResume(ctx context.Context, profile *types.Profile, req ResumeRequest, theme types.ColorTheme) (*layout.Plan, error) {
	page := layout.LetterPage()
	var m layout.Measurer = layout.NewTextMeasurer(page)
	if req.Measurer == config.MeasurerBrowser {
		if s.browser == nil {
			return nil, ErrRendererUnavailable
		}
		m = rendering.NewBrowserMeasurer(s.browser, page, theme)
	}
	return layout.NewEngine(m, page).Layout(ctx, profile, req.ExtraSkills, theme)
}

// renderLocal lays the resume out and prints it with headless Chrome. The
// browser measurer is used unless the request asks for text measurement.
func (s *Server) renderLocal(ctx context.Context, w http.ResponseWriter, profile *types.Profile, req ResumeRequest, theme types.ColorTheme) ([]byte, error) {
	if s.browser == nil {
		return nil, ErrRendererUnavailable
	}
	if req.Measurer == "" {
		req.Measurer = config.MeasurerBrowser
	}
	plan, err := s.planResume(ctx, profile, req, theme)
	if err != nil {
		return nil, err
	}
	pdf, err := rendering.PrintPDF(ctx, s.browser, plan)
	if err != nil {
		return nil, &RenderError{Renderer: config.RendererLocal, Cause: err}
	}

	w.Header().Set("X-Layout-Scale", fmt.Sprintf("%.2f", plan.Scale))
	report, err := validation.CheckPageCount(pdf, validation.MaxResumePages)
	if err != nil {
		log.Printf("[server] could not count pdf pages: %v", err)
	} else {
		w.Header().Set("X-Page-Count", fmt.Sprintf("%d", report.Pages))
	}
	return pdf, nil
}

// renderRemote sends the profile to the external PDF service.
func (s *Server) renderRemote(ctx context.Context, profile *types.Profile, req ResumeRequest, theme types.ColorTheme) ([]byte, error) {
	if s.pdf == nil {
		return nil, ErrRendererUnavailable
	}
	pdf, err := s.pdf.Generate(ctx, pdfapi.NewGenerateRequest(profile, req.ExtraSkills, theme))
	if err != nil {
		return nil, &RenderError{Renderer: config.RendererRemote, Cause: err}
	}
	return pdf, nil
}

// resumeFilename derives a download name from the profile's name.
func resumeFilename(profile *types.Profile) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '_'
		default:
			return -1
		}
	}, strings.TrimSpace(profile.PersonalInfo.Name))
	if name == "" {
		return "resume.pdf"
	}
	return name + "_resume.pdf"
}
