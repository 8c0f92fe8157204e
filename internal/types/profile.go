// Package types defines the core data structures shared across the service.
package types

import (
	"errors"
	"strings"
)

// ErrDuplicateSkill is returned when a skill with the same name and category already exists.
var ErrDuplicateSkill = errors.New("skill already exists in profile")

// SkillCategory is the fixed set of categories a profile skill may belong to.
type SkillCategory string

const (
	SkillTechnical SkillCategory = "technical"
	SkillSoft      SkillCategory = "soft"
	SkillLanguage  SkillCategory = "language"
	SkillTool      SkillCategory = "tool"
	SkillFramework SkillCategory = "framework"
	SkillOther     SkillCategory = "other"
)

// SkillCategories lists every valid category in display order.
var SkillCategories = []SkillCategory{
	SkillTechnical, SkillSoft, SkillLanguage, SkillTool, SkillFramework, SkillOther,
}

// Valid reports whether c is one of the enumerated categories.
func (c SkillCategory) Valid() bool {
	for _, known := range SkillCategories {
		if c == known {
			return true
		}
	}
	return false
}

// PersonalInfo holds the contact block shown at the top of a resume.
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Summary  string `json:"summary"`
	Website  string `json:"website"`
}

// Experience is a single work history entry.
type Experience struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Company           string   `json:"company"`
	Location          string   `json:"location,omitempty"`
	StartDate         string   `json:"startDate"`
	EndDate           string   `json:"endDate,omitempty"`
	Bullets           []string `json:"bullets"`
	ExcludeFromResume bool     `json:"excludeFromResume,omitempty"`
}

// Education is a single education entry.
type Education struct {
	ID          string `json:"id"`
	School      string `json:"school"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	Description string `json:"description"`
	Current     bool   `json:"current"`
}

// Skill is a named skill with a category.
type Skill struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Category SkillCategory `json:"category"`
}

// Profile is the user's master resume data.
type Profile struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	Experience   []Experience `json:"experience"`
	Education    []Education  `json:"education"`
	Skills       []Skill      `json:"skills"`
}

// EmptyProfile returns a profile with all sections initialized to empty slices.
func EmptyProfile() *Profile {
	return &Profile{
		Experience: []Experience{},
		Education:  []Education{},
		Skills:     []Skill{},
	}
}

// Normalize replaces nil sections with empty slices so the profile always
// serializes with arrays rather than nulls.
func (p *Profile) Normalize() {
	if p.Experience == nil {
		p.Experience = []Experience{}
	}
	if p.Education == nil {
		p.Education = []Education{}
	}
	if p.Skills == nil {
		p.Skills = []Skill{}
	}
	for i := range p.Experience {
		if p.Experience[i].Bullets == nil {
			p.Experience[i].Bullets = []string{}
		}
	}
}

// HasSkill reports whether a skill with the same name (case-insensitive) and category exists.
func (p *Profile) HasSkill(name string, category SkillCategory) bool {
	for _, s := range p.Skills {
		if strings.EqualFold(strings.TrimSpace(s.Name), strings.TrimSpace(name)) && s.Category == category {
			return true
		}
	}
	return false
}

// AddSkill appends a skill, rejecting duplicate (name, category) pairs.
func (p *Profile) AddSkill(skill Skill) error {
	if p.HasSkill(skill.Name, skill.Category) {
		return ErrDuplicateSkill
	}
	p.Skills = append(p.Skills, skill)
	return nil
}

// SkillNames returns the lowercased, trimmed names of all profile skills,
// skipping blank entries.
func (p *Profile) SkillNames() []string {
	names := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Settings holds per-user preferences stored alongside the profile.
type Settings struct {
	AutoCreateJobs bool `json:"autoCreateJobs"`
}
