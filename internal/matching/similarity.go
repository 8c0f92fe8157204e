package matching

import (
	"math"
	"sort"
	"strings"

	"github.com/jonathan/resume-tracker/internal/types"
)

// MatchPercent returns the share of required skills that are covered by
// available skills under bidirectional containment, as a rounded percentage.
// An empty requirement list scores 0.
func MatchPercent(required []string, available []string) int {
	if len(required) == 0 {
		return 0
	}
	matched := 0
	for _, skill := range required {
		if containedInAny(skill, available) {
			matched++
		}
	}
	return int(math.Round(float64(matched) / float64(len(required)) * 100))
}

// RankByProfile scores every posting by how many of its skills the profile
// covers and returns them best first. Equal scores keep catalog order.
func RankByProfile(postings []types.SamplePosting, profileSkills []string) []types.PostingMatch {
	matches := make([]types.PostingMatch, 0, len(postings))
	for _, p := range postings {
		matches = append(matches, types.PostingMatch{
			Posting: p,
			Score:   MatchPercent(p.Skills, profileSkills),
		})
	}
	sortMatches(matches)
	return matches
}

// SimilarByTitle finds postings related to a free-text title. An exact
// (case-insensitive) title hit ranks every other posting by the share of the
// hit's skills it covers. Otherwise titles are scored by word overlap with the query and only
// postings with a nonzero score are returned.
func SimilarByTitle(postings []types.SamplePosting, query string) []types.PostingMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		return []types.PostingMatch{}
	}

	for _, anchor := range postings {
		if !strings.EqualFold(strings.TrimSpace(anchor.Title), query) {
			continue
		}
		matches := make([]types.PostingMatch, 0, len(postings))
		for _, p := range postings {
			if p.ID == anchor.ID {
				continue
			}
			matches = append(matches, types.PostingMatch{
				Posting: p,
				Score:   MatchPercent(anchor.Skills, p.Skills),
			})
		}
		sortMatches(matches)
		return matches
	}

	queryWords := wordSet(query)
	matches := []types.PostingMatch{}
	for _, p := range postings {
		score := wordOverlapPercent(queryWords, wordSet(p.Title))
		if score > 0 {
			matches = append(matches, types.PostingMatch{Posting: p, Score: score})
		}
	}
	sortMatches(matches)
	return matches
}

// SkillGap returns the posting skills the profile does not cover, in posting order.
func SkillGap(profileSkills []string, posting types.SamplePosting) []string {
	gap := []string{}
	for _, skill := range posting.Skills {
		if !containedInAny(skill, profileSkills) {
			gap = append(gap, skill)
		}
	}
	return gap
}

// wordOverlapPercent is overlap / max(len(a), len(b)) as a rounded percentage.
func wordOverlapPercent(a, b map[string]bool) int {
	denominator := max(len(a), len(b))
	if denominator == 0 {
		return 0
	}
	overlap := 0
	for w := range a {
		if b[w] {
			overlap++
		}
	}
	return int(math.Round(float64(overlap) / float64(denominator) * 100))
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

func sortMatches(matches []types.PostingMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
}
