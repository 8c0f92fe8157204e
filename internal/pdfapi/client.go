// Package pdfapi is a client for the external resume PDF rendering service.
package pdfapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonathan/resume-tracker/internal/layout"
	"github.com/jonathan/resume-tracker/internal/types"
)

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 4096

// EducationItem is one education row in a render request.
type EducationItem struct {
	Degree        string `json:"degree"`
	School        string `json:"school"`
	LocationDates string `json:"location_dates"`
}

// ExperienceItem is one experience row in a render request.
type ExperienceItem struct {
	JobTitle      string   `json:"job_title"`
	Company       string   `json:"company"`
	LocationDates string   `json:"location_dates"`
	BulletPoints  []string `json:"bullet_points"`
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Phone       string           `json:"phone,omitempty"`
	Website     string           `json:"website,omitempty"`
	Summary     string           `json:"summary"`
	Education   []EducationItem  `json:"education"`
	Experience  []ExperienceItem `json:"experience"`
	Skills      string           `json:"skills"`
	HeaderColor string           `json:"header_color"`
}

// Error is returned when the service answers with a non-2xx status.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("pdf api error: status %d", e.Status)
	}
	return fmt.Sprintf("pdf api error: status %d: %s", e.Status, body)
}

// Client calls the rendering service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL. A nil httpClient
// uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Generate renders req and returns the PDF bytes.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/pdf")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call pdf api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{Status: resp.StatusCode, Body: string(errBody)}
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}
	return pdf, nil
}

// NewGenerateRequest builds a render request from the same sections the
// layout engine uses, so excluded experience and blank bullets are dropped
// and education is most recent first. Added skill markers are removed.
func NewGenerateRequest(profile *types.Profile, extraSkills []string, theme types.ColorTheme) *GenerateRequest {
	if profile == nil {
		profile = types.EmptyProfile()
	}
	info := profile.PersonalInfo
	req := &GenerateRequest{
		Name:        strings.TrimSpace(info.Name),
		Email:       strings.TrimSpace(info.Email),
		Phone:       strings.TrimSpace(info.Phone),
		Website:     strings.TrimSpace(info.Website),
		Summary:     strings.TrimSpace(info.Summary),
		Education:   []EducationItem{},
		Experience:  []ExperienceItem{},
		HeaderColor: theme.Hex,
	}

	for _, section := range layout.BuildSections(profile, extraSkills) {
		switch section.Kind {
		case layout.SectionEducation:
			for _, e := range section.Entries {
				req.Education = append(req.Education, EducationItem{
					Degree:        e.Title,
					School:        e.Organization,
					LocationDates: locationDates(e),
				})
			}
		case layout.SectionExperience:
			for _, e := range section.Entries {
				req.Experience = append(req.Experience, ExperienceItem{
					JobTitle:      e.Title,
					Company:       e.Organization,
					LocationDates: locationDates(e),
					BulletPoints:  e.Bullets,
				})
			}
		case layout.SectionSkills:
			names := make([]string, 0, len(section.Skills))
			for _, s := range section.Skills {
				names = append(names, strings.TrimSuffix(s, layout.AddedSkillMarker))
			}
			req.Skills = strings.Join(names, ",")
		}
	}
	return req
}

func locationDates(e layout.Entry) string {
	switch {
	case e.Location != "" && e.Dates != "":
		return e.Location + " | " + e.Dates
	case e.Location != "":
		return e.Location
	default:
		return e.Dates
	}
}
