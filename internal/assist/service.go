// Package assist generates resume content (summaries, bullets, cover letters
// and skill suggestions) with an LLM. Completions are JSON-in/JSON-out, and
// output that cannot be parsed degrades to an empty result.
package assist

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/resume-tracker/internal/cache"
	"github.com/jonathan/resume-tracker/internal/llm"
	"github.com/jonathan/resume-tracker/internal/prompts"
	"github.com/jonathan/resume-tracker/internal/types"
)

const (
	defaultBulletCount   = 3
	maxBulletCount       = 8
	defaultSkillLimit    = 10
	defaultCoverWords    = 350
	defaultCoverTone     = "professional"
	maxJobDescriptionLen = 12000
)

// JSONCache is the subset of cache.Redis the service needs.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Service runs the four assistance operations.
type Service struct {
	client llm.Client
	cache  JSONCache
	ttl    time.Duration
}

// NewService creates a service. client may be nil, in which case every
// operation returns ErrUnavailable. cache may be nil.
func NewService(client llm.Client, c JSONCache, ttl time.Duration) *Service {
	return &Service{client: client, cache: c, ttl: ttl}
}

// Available reports whether a completion client is configured.
func (s *Service) Available() bool {
	return s != nil && s.client != nil
}

// SummaryRequest asks for professional summary options.
type SummaryRequest struct {
	Profile        *types.Profile `json:"profile"`
	JobDescription string         `json:"jobDescription,omitempty"`
}

// BulletsRequest asks for bullet points for one role.
type BulletsRequest struct {
	Title          string   `json:"title" validate:"required"`
	Company        string   `json:"company"`
	Bullets        []string `json:"bullets"`
	Notes          string   `json:"notes,omitempty"`
	JobDescription string   `json:"jobDescription,omitempty"`
	Count          int      `json:"count,omitempty" validate:"omitempty,min=1,max=8"`
}

// CoverLetterRequest asks for a cover letter for one job.
type CoverLetterRequest struct {
	Profile        *types.Profile `json:"profile"`
	Company        string         `json:"company" validate:"required"`
	Title          string         `json:"title" validate:"required"`
	JobDescription string         `json:"jobDescription" validate:"required"`
	Tone           string         `json:"tone,omitempty"`
	MaxWords       int            `json:"maxWords,omitempty" validate:"omitempty,min=100,max=1000"`
	RelevantSkills []string       `json:"relevantSkills,omitempty"`
}

// SkillsRequest asks for skills to add to a profile for one job.
type SkillsRequest struct {
	Profile        *types.Profile `json:"profile"`
	JobDescription string         `json:"jobDescription" validate:"required"`
	Limit          int            `json:"limit,omitempty" validate:"omitempty,min=1,max=25"`
}

// GenerateSummary returns summary options, most preferred first.
func (s *Service) GenerateSummary(ctx context.Context, req SummaryRequest) ([]string, error) {
	data := map[string]string{
		"Profile":        describeProfile(req.Profile),
		"JobDescription": truncate(req.JobDescription),
	}
	return s.generateList(ctx, "generate-summary", data, 0)
}

// GenerateBullets returns new bullet points for a role.
func (s *Service) GenerateBullets(ctx context.Context, req BulletsRequest) ([]string, error) {
	count := req.Count
	if count <= 0 {
		count = defaultBulletCount
	}
	count = min(count, maxBulletCount)
	data := map[string]string{
		"Count":          strconv.Itoa(count),
		"Title":          req.Title,
		"Company":        req.Company,
		"Bullets":        bulletList(req.Bullets),
		"Notes":          req.Notes,
		"JobDescription": truncate(req.JobDescription),
	}
	return s.generateList(ctx, "generate-bullets", data, count)
}

// GenerateCoverLetter returns a cover letter, or "" when the model's output
// could not be parsed.
func (s *Service) GenerateCoverLetter(ctx context.Context, req CoverLetterRequest) (string, error) {
	tone := strings.TrimSpace(req.Tone)
	if tone == "" {
		tone = defaultCoverTone
	}
	maxWords := req.MaxWords
	if maxWords <= 0 {
		maxWords = defaultCoverWords
	}
	data := map[string]string{
		"Profile":        describeProfile(req.Profile),
		"Company":        req.Company,
		"Title":          req.Title,
		"JobDescription": truncate(req.JobDescription),
		"Tone":           tone,
		"MaxWords":       strconv.Itoa(maxWords),
		"RelevantSkills": strings.Join(req.RelevantSkills, ", "),
	}

	raw, err := s.complete(ctx, "generate-cover-letter", data)
	if err != nil {
		return "", err
	}
	letter, ok := parseCoverLetter(raw)
	if !ok {
		log.Printf("[assist] generate-cover-letter returned malformed output, using empty letter")
		return "", nil
	}
	return letter, nil
}

// SuggestSkills returns skills the job asks for that the profile lacks.
func (s *Service) SuggestSkills(ctx context.Context, req SkillsRequest) ([]string, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSkillLimit
	}
	profile := req.Profile
	if profile == nil {
		profile = types.EmptyProfile()
	}

	names := make([]string, 0, len(profile.Skills))
	for _, sk := range profile.Skills {
		names = append(names, sk.Name)
	}
	data := map[string]string{
		"Limit":          strconv.Itoa(limit),
		"Skills":         strings.Join(names, ", "),
		"Experience":     describeExperience(profile.Experience),
		"JobDescription": truncate(req.JobDescription),
	}

	suggestions, err := s.generateList(ctx, "suggest-skills", data, 0)
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[strings.ToLower(strings.TrimSpace(n))] = true
	}
	out := []string{}
	for _, sug := range suggestions {
		key := strings.ToLower(sug)
		if have[key] {
			continue
		}
		have[key] = true
		out = append(out, sug)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// generateList runs a prompt that answers with a JSON array of strings.
// Malformed output yields an empty list. limit > 0 truncates the result.
func (s *Service) generateList(ctx context.Context, key string, data map[string]string, limit int) ([]string, error) {
	raw, err := s.complete(ctx, key, data)
	if err != nil {
		return nil, err
	}
	items, ok := parseStringList(raw)
	if !ok {
		log.Printf("[assist] %s returned malformed output, using empty list", key)
		return []string{}, nil
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// complete renders the prompt and returns the raw JSON text, consulting the
// cache first. Cache failures are logged and otherwise ignored.
func (s *Service) complete(ctx context.Context, key string, data map[string]string) (string, error) {
	if !s.Available() {
		return "", ErrUnavailable
	}
	prompt, err := prompts.Get(prompts.AssistFile, key)
	if err != nil {
		return "", &Error{Operation: key, Cause: err}
	}
	text := prompt.Render(data)

	cacheKey := cache.Key("assist:"+key, cache.NormalizeText(text))
	if s.cache != nil {
		var cached string
		hit, err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			log.Printf("[assist] cache read failed: %v", err)
		}
		if hit {
			return cached, nil
		}
	}

	raw, err := s.client.GenerateJSON(ctx, llm.Request{
		Prompt:      text,
		Tier:        llm.ModelTier(prompt.Tier),
		Temperature: prompt.Temperature,
	})
	if err != nil {
		log.Printf("[assist] %s failed: %v", key, err)
		return "", &Error{Operation: key, Cause: err}
	}
	raw = llm.CleanJSONBlock(raw)

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, raw, s.ttl); err != nil {
			log.Printf("[assist] cache write failed: %v", err)
		}
	}
	return raw, nil
}

// parseStringList accepts a JSON array of strings, or an object wrapping one
// under any single key (models sometimes answer {"skills": [...]}).
func parseStringList(raw string) ([]string, bool) {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		var wrapped map[string][]string
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil || len(wrapped) != 1 {
			return nil, false
		}
		for _, v := range wrapped {
			items = v
		}
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = cleanItem(item)
		if item == "" || seen[strings.ToLower(item)] {
			continue
		}
		seen[strings.ToLower(item)] = true
		out = append(out, item)
	}
	return out, true
}

func parseCoverLetter(raw string) (string, bool) {
	var body struct {
		CoverLetter string `json:"coverLetter"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err == nil {
		letter := strings.TrimSpace(body.CoverLetter)
		return letter, letter != ""
	}
	var plain string
	if err := json.Unmarshal([]byte(raw), &plain); err == nil {
		plain = strings.TrimSpace(plain)
		return plain, plain != ""
	}
	return "", false
}

// cleanItem strips list markers a model may leave on a bullet.
func cleanItem(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"- ", "* ", "• "} {
		s = strings.TrimPrefix(s, prefix)
	}
	return strings.TrimSpace(s)
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxJobDescriptionLen {
		return s
	}
	return strings.ToValidUTF8(s[:maxJobDescriptionLen], "")
}

func bulletList(bullets []string) string {
	var sb strings.Builder
	for _, b := range bullets {
		if b = strings.TrimSpace(b); b != "" {
			sb.WriteString("- ")
			sb.WriteString(b)
			sb.WriteString("\n")
		}
	}
	if sb.Len() == 0 {
		return "(none)"
	}
	return strings.TrimRight(sb.String(), "\n")
}

// describeProfile renders the parts of a profile a model needs as plain text.
func describeProfile(p *types.Profile) string {
	if p == nil {
		return "(no profile)"
	}
	var sb strings.Builder
	info := p.PersonalInfo
	if info.Name != "" {
		sb.WriteString("Name: " + info.Name + "\n")
	}
	if info.Summary != "" {
		sb.WriteString("Current summary: " + info.Summary + "\n")
	}
	if exp := describeExperience(p.Experience); exp != "" {
		sb.WriteString("Experience:\n" + exp + "\n")
	}
	for _, ed := range p.Education {
		line := strings.TrimSpace(strings.Join([]string{ed.Degree, ed.Field}, " "))
		sb.WriteString("Education: " + line + ", " + ed.School + "\n")
	}
	names := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		names = append(names, s.Name)
	}
	if len(names) > 0 {
		sb.WriteString("Skills: " + strings.Join(names, ", ") + "\n")
	}
	if sb.Len() == 0 {
		return "(empty profile)"
	}
	return strings.TrimRight(sb.String(), "\n")
}

func describeExperience(experience []types.Experience) string {
	var sb strings.Builder
	for _, e := range experience {
		if e.ExcludeFromResume {
			continue
		}
		sb.WriteString("* " + e.Title + " at " + e.Company + "\n")
		for _, b := range e.Bullets {
			if b = strings.TrimSpace(b); b != "" {
				sb.WriteString("  - " + b + "\n")
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
