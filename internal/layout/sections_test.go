package layout

import (
	"context"
	"strings"
	"testing"

	"github.com/jonathan/resume-tracker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProfile() *types.Profile {
	return &types.Profile{
		PersonalInfo: types.PersonalInfo{
			Name:     "Jordan Lee",
			Email:    "jordan@example.com",
			Phone:    "555-0100",
			Location: "Austin, TX",
			Summary:  "Frontend engineer focused on accessible interfaces.",
		},
		Education: []types.Education{
			{ID: "e1", School: "State College", Degree: "AA", StartDate: "2012-09", EndDate: "2014-05"},
			{ID: "e2", School: "State University", Degree: "BS", Field: "Computer Science", StartDate: "2014-09", EndDate: "2016-05"},
			{ID: "e3", School: "Night School", Degree: "Certificate", StartDate: "2023-01", Current: true},
		},
		Experience: []types.Experience{
			{ID: "x1", Title: "Senior Engineer", Company: "Acme", StartDate: "2020-01", Bullets: []string{"Led the design system", "  ", "Mentored four engineers"}},
			{ID: "x2", Title: "Intern", Company: "Hidden Co", StartDate: "2015-06", EndDate: "2015-08", ExcludeFromResume: true},
			{ID: "x3", Title: "Engineer", Company: "Globex", Location: "Remote", StartDate: "2016-06", EndDate: "2019-12", Bullets: []string{"Shipped checkout"}},
		},
		Skills: []types.Skill{
			{ID: "s1", Name: "React", Category: types.SkillFramework},
			{ID: "s2", Name: "TypeScript", Category: types.SkillTechnical},
			{ID: "s3", Name: "react", Category: types.SkillTechnical},
		},
	}
}

func TestBuildSections_Order(t *testing.T) {
	sections := BuildSections(sampleProfile(), nil)

	require.Len(t, sections, 4)
	kinds := []SectionKind{sections[0].Kind, sections[1].Kind, sections[2].Kind, sections[3].Kind}
	assert.Equal(t, []SectionKind{SectionHeader, SectionEducation, SectionExperience, SectionSkills}, kinds)
}

func TestBuildSections_Header(t *testing.T) {
	header := BuildSections(sampleProfile(), nil)[0]

	assert.Equal(t, "Jordan Lee", header.Name)
	assert.Equal(t, "jordan@example.com · 555-0100 · Austin, TX", header.Contact)
	assert.Contains(t, header.Summary, "accessible")
}

func TestBuildSections_EducationMostRecentFirst(t *testing.T) {
	education := BuildSections(sampleProfile(), nil)[1]

	require.Len(t, education.Entries, 3)
	assert.Equal(t, "Night School", education.Entries[0].Organization)
	assert.Equal(t, "2023-01 - Present", education.Entries[0].Dates)
	assert.Equal(t, "State University", education.Entries[1].Organization)
	assert.Equal(t, "BS, Computer Science", education.Entries[1].Title)
	assert.Equal(t, "State College", education.Entries[2].Organization)
}

func TestBuildSections_ExperienceFiltersExcludedAndBlankBullets(t *testing.T) {
	experience := BuildSections(sampleProfile(), nil)[2]

	require.Len(t, experience.Entries, 2)
	assert.Equal(t, "Acme", experience.Entries[0].Organization)
	assert.Equal(t, []string{"Led the design system", "Mentored four engineers"}, experience.Entries[0].Bullets)
	assert.Equal(t, "2020-01 - Present", experience.Entries[0].Dates)
	assert.Equal(t, "Globex", experience.Entries[1].Organization)
	assert.Equal(t, "2016-06 - 2019-12", experience.Entries[1].Dates)
}

func TestBuildSections_SkillsWithAdditions(t *testing.T) {
	skills := BuildSections(sampleProfile(), []string{"GraphQL", "typescript", " ", "Jest"})[3]

	assert.Equal(t, []string{"React", "TypeScript", "GraphQL*", "Jest*"}, skills.Skills)
}

func TestBuildSections_EmptyProfile(t *testing.T) {
	sections := BuildSections(nil, nil)

	require.Len(t, sections, 1)
	assert.Equal(t, SectionHeader, sections[0].Kind)
}

func TestFormatDateRange(t *testing.T) {
	assert.Equal(t, "", FormatDateRange("", "", true))
	assert.Equal(t, "2019", FormatDateRange("", "2019", false))
	assert.Equal(t, "2018 - 2019", FormatDateRange("2018", "2019", false))
	assert.Equal(t, "2018 - Present", FormatDateRange("2018", "", true))
	assert.Equal(t, "2018", FormatDateRange("2018", "", false))
}

func TestTextMeasurer_ShrinksWithScale(t *testing.T) {
	m := NewTextMeasurer(LetterPage())
	sections := BuildSections(sampleProfile(), nil)

	full, err := m.Measure(context.Background(), sections, 1.0)
	require.NoError(t, err)
	small, err := m.Measure(context.Background(), sections, MinScale)
	require.NoError(t, err)

	require.Len(t, full, len(sections))
	for i := range sections {
		assert.Greater(t, full[i], 0.0)
		assert.LessOrEqual(t, small[i], full[i])
	}
}

func TestTextMeasurer_LongBulletsWrap(t *testing.T) {
	m := NewTextMeasurer(LetterPage())
	short := Section{Kind: SectionExperience, Title: "Experience", Entries: []Entry{{Title: "Engineer", Bullets: []string{"Short"}}}}
	long := Section{Kind: SectionExperience, Title: "Experience", Entries: []Entry{{Title: "Engineer", Bullets: []string{strings.Repeat("word ", 100)}}}}

	heights, err := m.Measure(context.Background(), []Section{short, long}, 1.0)

	require.NoError(t, err)
	assert.Greater(t, heights[1], heights[0])
}

func TestEngine_LongProfileOverflowsGracefully(t *testing.T) {
	profile := sampleProfile()
	for i := 0; i < 40; i++ {
		profile.Experience = append(profile.Experience, types.Experience{
			Title:     "Engineer",
			Company:   "Filler Inc",
			StartDate: "2010-01",
			EndDate:   "2011-01",
			Bullets:   []string{strings.Repeat("Delivered measurable results ", 6)},
		})
	}
	engine := NewEngine(NewTextMeasurer(LetterPage()), LetterPage())

	plan, err := engine.Layout(context.Background(), profile, nil, types.Themes[0])

	require.NoError(t, err)
	assert.False(t, plan.Fits)
	assert.Equal(t, MaxAttempts, plan.Attempts)
	assert.GreaterOrEqual(t, plan.Scale, MinScale)
}
