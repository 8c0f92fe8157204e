// Package matching classifies job keywords against a profile and ranks the
// sample postings catalog by skill overlap.
package matching

import (
	"strings"

	"github.com/jonathan/resume-tracker/internal/types"
)

// Contains reports whether a and b match under bidirectional, case-insensitive
// substring containment. Blank inputs never match.
func Contains(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// containedInAny reports whether skill matches any entry of pool.
func containedInAny(skill string, pool []string) bool {
	for _, candidate := range pool {
		if Contains(skill, candidate) {
			return true
		}
	}
	return false
}

// MatchSkills partitions extracted keywords into those backed by a profile
// skill (relevant) and the rest (missing). Keyword spelling is preserved.
func MatchSkills(keywords []string, profileSkills []string) types.SkillMatch {
	result := types.SkillMatch{
		Keywords: []string{},
		Relevant: []string{},
		Missing:  []string{},
	}
	seen := make(map[string]bool, len(keywords))
	for _, keyword := range keywords {
		if strings.TrimSpace(keyword) == "" || seen[keyword] {
			continue
		}
		seen[keyword] = true
		result.Keywords = append(result.Keywords, keyword)
		if containedInAny(keyword, profileSkills) {
			result.Relevant = append(result.Relevant, keyword)
		} else {
			result.Missing = append(result.Missing, keyword)
		}
	}
	return result
}

// ProfileSkillsInText returns the profile skill names that literally occur in
// text (case-insensitive), in profile order and without duplicates.
func ProfileSkillsInText(skills []types.Skill, text string) []string {
	found := []string{}
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return found
	}
	seen := make(map[string]bool)
	for _, s := range skills {
		name := strings.TrimSpace(s.Name)
		key := strings.ToLower(name)
		if key == "" || seen[key] {
			continue
		}
		if strings.Contains(lower, key) {
			seen[key] = true
			found = append(found, name)
		}
	}
	return found
}

// Analyze runs the full skill classification for a job description: keyword
// extraction results are matched against the profile, and the profile's own
// skills found in the text are reported alongside.
func Analyze(keywords []string, profile *types.Profile, text string) types.SkillMatch {
	if profile == nil {
		profile = types.EmptyProfile()
	}
	result := MatchSkills(keywords, profile.SkillNames())
	result.ProfileSkillsInText = ProfileSkillsInText(profile.Skills, text)
	return result
}
