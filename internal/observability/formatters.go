// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-tracker/internal/layout"
	"github.com/jonathan/resume-tracker/internal/search"
	"github.com/jonathan/resume-tracker/internal/types"
	"github.com/jonathan/resume-tracker/internal/validation"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to at most n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// writeList writes up to limit items as a wrapped, comma separated list.
func writeList(sb *strings.Builder, label string, items []string, limit int) {
	if len(items) == 0 {
		fmt.Fprintf(sb, "%s (none)\n", label)
		return
	}
	shown := items
	if len(items) > limit {
		shown = items[:limit]
	}
	fmt.Fprintf(sb, "%s (%d)\n", label, len(items))
	for _, item := range shown {
		fmt.Fprintf(sb, "  • %s\n", item)
	}
	if len(items) > limit {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-limit)
	}
}

// PrintSkillMatch outputs the keyword analysis of a job description.
func (p *Printer) PrintSkillMatch(match *types.SkillMatch) {
	if match == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Keywords found: %d\n\n", len(match.Keywords))
	writeList(&sb, "Relevant:", match.Relevant, maxItemsToShow*2)
	sb.WriteString("\n")
	writeList(&sb, "Missing:", match.Missing, maxItemsToShow*2)
	if len(match.ProfileSkillsInText) > 0 {
		sb.WriteString("\n")
		sb.WriteString("Mentioned from your profile:\n")
		sb.WriteString("  " + strings.Join(match.ProfileSkillsInText, ", ") + "\n")
	}

	p.printBox("KEYWORD ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPostingMatches outputs ranked catalog postings with their scores.
func (p *Printer) PrintPostingMatches(title string, matches []types.PostingMatch) {
	if len(matches) == 0 {
		p.printBox(title, "No matching postings")
		return
	}

	var sb strings.Builder
	count := min(len(matches), maxItemsToShow)
	for i := 0; i < count; i++ {
		m := matches[i]
		fmt.Fprintf(&sb, "#%d  %s (%s)\n", i+1, m.Posting.Title, m.Posting.ID)
		fmt.Fprintf(&sb, "    Score: %d%%  %s\n", m.Score, m.Posting.Company)
	}
	if len(matches) > maxItemsToShow {
		fmt.Fprintf(&sb, "... and %d more postings\n", len(matches)-maxItemsToShow)
	}

	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSearchResults outputs ranked tracked jobs.
func (p *Printer) PrintSearchResults(query string, results []search.Result) {
	title := "TRACKED JOBS"
	if q := strings.TrimSpace(query); q != "" {
		title = fmt.Sprintf("SEARCH: %q", q)
	}
	if len(results) == 0 {
		p.printBox(title, "No jobs found")
		return
	}

	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%-12s %s at %s\n", r.Job.Status, r.Job.Title, r.Job.Company)
		fmt.Fprintf(&sb, "             applied %s", r.Job.AppliedDate)
		if r.Score > 0 {
			fmt.Fprintf(&sb, ", score %d", r.Score)
		}
		if i < len(results)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(title, sb.String())
}

// PrintLayoutPlan outputs the chosen scale and the fitting attempts.
func (p *Printer) PrintLayoutPlan(plan *layout.Plan) {
	if plan == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Theme:    %s (%s)\n", plan.Theme.Name, plan.Theme.Hex)
	fmt.Fprintf(&sb, "Scale:    %.2f\n", plan.Scale)
	fmt.Fprintf(&sb, "Spacing:  %.2f\n", plan.Spacing)
	fmt.Fprintf(&sb, "Height:   %.1f / %.1f pt\n", plan.Total, plan.Available)
	if plan.Fits {
		sb.WriteString("Fits:     yes\n")
	} else {
		sb.WriteString("Fits:     no (rendered at minimum scale)\n")
	}

	sb.WriteString("\nSections:\n")
	for i, s := range plan.Sections {
		height := 0.0
		if i < len(plan.Heights) {
			height = plan.Heights[i]
		}
		label := s.Title
		if s.Kind == layout.SectionHeader {
			label = s.Name
		}
		fmt.Fprintf(&sb, "  %-10s %-30s %6.1f\n", s.Kind, clip(label, 30), height)
	}

	if len(plan.History) > 1 {
		sb.WriteString("\nAttempts:\n")
		for i, a := range plan.History {
			fmt.Fprintf(&sb, "  %d. scale %.2f spacing %.2f -> %.1f\n", i+1, a.Scale, a.Spacing, a.Total)
		}
	}

	p.printBox("LAYOUT PLAN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPageReport outputs the page count of a rendered resume.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintPageReport(report *validation.PageReport) {
	if report == nil {
		return
	}
	if !report.Overflow {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, fmt.Sprintf("✅ %d PAGE(S), WITHIN LIMIT", report.Pages))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}
	p.printBox("PAGE OVERFLOW", fmt.Sprintf("⚠ Rendered %d pages, limit is %d", report.Pages, report.MaxPages))
}
