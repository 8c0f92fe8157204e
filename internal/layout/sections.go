// Package layout builds the resume section model from a profile and fits it
// onto a single page by shrinking type size and spacing.
package layout

import (
	"sort"
	"strings"

	"github.com/jonathan/resume-tracker/internal/types"
)

// SectionKind identifies one of the fixed resume sections.
type SectionKind string

const (
	SectionHeader     SectionKind = "header"
	SectionEducation  SectionKind = "education"
	SectionExperience SectionKind = "experience"
	SectionSkills     SectionKind = "skills"
)

// AddedSkillMarker is appended to skills that were added for a single resume
// and are not part of the stored profile.
const AddedSkillMarker = "*"

// Entry is one education or experience item.
type Entry struct {
	Title        string   `json:"title"`
	Organization string   `json:"organization"`
	Location     string   `json:"location,omitempty"`
	Dates        string   `json:"dates,omitempty"`
	Detail       string   `json:"detail,omitempty"`
	Bullets      []string `json:"bullets,omitempty"`
}

// Section is a renderable block of the resume.
type Section struct {
	Kind  SectionKind `json:"kind"`
	Title string      `json:"title"`

	// Header only
	Name    string `json:"name,omitempty"`
	Contact string `json:"contact,omitempty"`
	Summary string `json:"summary,omitempty"`

	Entries []Entry  `json:"entries,omitempty"`
	Skills  []string `json:"skills,omitempty"`
}

// BuildSections converts a profile into sections in render order: header,
// education, experience, skills. Education and experience sections are left
// out when they have no entries, and so is an empty skills list.
func BuildSections(profile *types.Profile, extraSkills []string) []Section {
	if profile == nil {
		profile = types.EmptyProfile()
	}

	sections := []Section{buildHeader(profile.PersonalInfo)}
	if s := buildEducation(profile.Education); len(s.Entries) > 0 {
		sections = append(sections, s)
	}
	if s := buildExperience(profile.Experience); len(s.Entries) > 0 {
		sections = append(sections, s)
	}
	if s := buildSkills(profile.Skills, extraSkills); len(s.Skills) > 0 {
		sections = append(sections, s)
	}
	return sections
}

func buildHeader(info types.PersonalInfo) Section {
	return Section{
		Kind:    SectionHeader,
		Title:   strings.TrimSpace(info.Name),
		Name:    strings.TrimSpace(info.Name),
		Contact: ContactLine(info),
		Summary: strings.TrimSpace(info.Summary),
	}
}

// ContactLine joins the non-empty contact fields with a middle dot.
func ContactLine(info types.PersonalInfo) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{info.Email, info.Phone, info.Location, info.Website} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " · ")
}

// buildEducation orders entries by end date (start date when there is none),
// most recent first. Dates are YYYY-MM style strings so they compare lexically.
func buildEducation(education []types.Education) Section {
	sorted := make([]types.Education, len(education))
	copy(sorted, education)
	sort.SliceStable(sorted, func(i, j int) bool {
		return educationSortKey(sorted[i]) > educationSortKey(sorted[j])
	})

	section := Section{Kind: SectionEducation, Title: "Education", Entries: []Entry{}}
	for _, ed := range sorted {
		if strings.TrimSpace(ed.School) == "" && strings.TrimSpace(ed.Degree) == "" {
			continue
		}
		title := strings.TrimSpace(ed.Degree)
		if field := strings.TrimSpace(ed.Field); field != "" {
			if title != "" {
				title += ", " + field
			} else {
				title = field
			}
		}
		section.Entries = append(section.Entries, Entry{
			Title:        title,
			Organization: strings.TrimSpace(ed.School),
			Dates:        FormatDateRange(ed.StartDate, ed.EndDate, ed.Current),
			Detail:       strings.TrimSpace(ed.Description),
		})
	}
	return section
}

func educationSortKey(ed types.Education) string {
	if ed.EndDate != "" {
		return ed.EndDate
	}
	return ed.StartDate
}

func buildExperience(experience []types.Experience) Section {
	section := Section{Kind: SectionExperience, Title: "Experience", Entries: []Entry{}}
	for _, exp := range experience {
		if exp.ExcludeFromResume {
			continue
		}
		bullets := make([]string, 0, len(exp.Bullets))
		for _, b := range exp.Bullets {
			if b = strings.TrimSpace(b); b != "" {
				bullets = append(bullets, b)
			}
		}
		section.Entries = append(section.Entries, Entry{
			Title:        strings.TrimSpace(exp.Title),
			Organization: strings.TrimSpace(exp.Company),
			Location:     strings.TrimSpace(exp.Location),
			Dates:        FormatDateRange(exp.StartDate, exp.EndDate, exp.EndDate == ""),
			Bullets:      bullets,
		})
	}
	return section
}

// buildSkills lists profile skills first, then the extra skills that the
// profile does not already have, each marked with AddedSkillMarker.
func buildSkills(skills []types.Skill, extra []string) Section {
	section := Section{Kind: SectionSkills, Title: "Skills", Skills: []string{}}
	seen := make(map[string]bool)
	for _, s := range skills {
		name := strings.TrimSpace(s.Name)
		key := strings.ToLower(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		section.Skills = append(section.Skills, name)
	}
	for _, name := range extra {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		section.Skills = append(section.Skills, name+AddedSkillMarker)
	}
	return section
}

// FormatDateRange renders "start - end". An open range ends in "Present" when
// ongoing is set; otherwise only the start is shown.
func FormatDateRange(start, end string, ongoing bool) string {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	switch {
	case start == "" && end == "":
		return ""
	case end != "" && start == "":
		return end
	case end != "":
		return start + " - " + end
	case ongoing:
		return start + " - Present"
	default:
		return start
	}
}
