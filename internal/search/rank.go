// Package search ranks tracked jobs against a free-text query.
package search

import (
	"sort"
	"strings"

	"github.com/jonathan/resume-tracker/internal/types"
)

// Field weights. A company that equals the query also contains it, so an
// exact company hit earns both bonuses.
const (
	CompanyExactWeight     = 20
	CompanySubstringWeight = 10
	TitleWeight            = 8
	DescriptionWeight      = 3
	NotesWeight            = 1
)

// Result is a job with its relevance score.
type Result struct {
	Job   types.Job `json:"job"`
	Score int       `json:"score"`
}

// Score computes the relevance of job for an already lowercased, trimmed query.
// It returns 0 when the query appears in none of the searchable fields.
func Score(job *types.Job, query string) int {
	if query == "" {
		return 0
	}
	company := strings.ToLower(job.Company)

	score := 0
	if company == query {
		score += CompanyExactWeight
	}
	if strings.Contains(company, query) {
		score += CompanySubstringWeight
	}
	if strings.Contains(strings.ToLower(job.Title), query) {
		score += TitleWeight
	}
	if strings.Contains(strings.ToLower(job.Description), query) {
		score += DescriptionWeight
	}
	if strings.Contains(strings.ToLower(job.Notes), query) {
		score += NotesWeight
	}
	return score
}

// Rank filters jobs to those mentioning query in the title, company,
// description or notes and orders them by score, breaking ties by recency.
// A blank query returns every job ordered by recency with a zero score.
func Rank(query string, jobs []types.Job) []Result {
	query = strings.ToLower(strings.TrimSpace(query))

	results := make([]Result, 0, len(jobs))
	for i := range jobs {
		if query == "" {
			results = append(results, Result{Job: jobs[i]})
			continue
		}
		if s := Score(&jobs[i], query); s > 0 {
			results = append(results, Result{Job: jobs[i], Score: s})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Job.RecencyKey().After(results[j].Job.RecencyKey())
	})
	return results
}
