package layout

import (
	"context"
	"math"

	"github.com/jonathan/resume-tracker/internal/types"
)

const (
	// MaxAttempts bounds the measure/shrink loop
	MaxAttempts = 3
	// MinScale is the smallest type scale the engine will choose
	MinScale = 0.7
	// BaseSpacing is the gap between sections at scale 1.0, in points
	BaseSpacing = 14.0
	// MinSpacing is the smallest gap between sections
	MinSpacing = 6.0
	// SpacingShrink multiplies the section gap on every retry
	SpacingShrink = 0.7
)

// Attempt records one pass of the fitting loop.
type Attempt struct {
	Scale   float64 `json:"scale"`
	Spacing float64 `json:"spacing"`
	Total   float64 `json:"total"`
}

// Plan is the outcome of fitting sections onto a page.
type Plan struct {
	Sections  []Section        `json:"sections"`
	Heights   []float64        `json:"heights"`
	Scale     float64          `json:"scale"`
	Spacing   float64          `json:"spacing"`
	Total     float64          `json:"total"`
	Available float64          `json:"available"`
	Attempts  int              `json:"attempts"`
	Fits      bool             `json:"fits"`
	History   []Attempt        `json:"history"`
	Page      Page             `json:"page"`
	Theme     types.ColorTheme `json:"theme"`
}

// Engine fits resume sections onto one page.
type Engine struct {
	measurer Measurer
	page     Page
}

// NewEngine creates an engine that measures with m on page.
func NewEngine(m Measurer, page Page) *Engine {
	return &Engine{measurer: m, page: page}
}

// Page returns the page the engine lays out on.
func (e *Engine) Page() Page {
	return e.page
}

// Fit measures the sections and, while they overflow, shrinks the scale by the
// square root of the overage (never below MinScale) and the spacing by
// SpacingShrink (never below MinSpacing). It stops after MaxAttempts passes;
// a plan that still overflows is returned with Fits=false.
func (e *Engine) Fit(ctx context.Context, sections []Section) (*Plan, error) {
	available := e.page.Available()
	plan := &Plan{
		Sections:  sections,
		Available: available,
		Page:      e.page,
		History:   make([]Attempt, 0, MaxAttempts),
	}

	scale, spacing := 1.0, BaseSpacing
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &MeasureError{Attempt: attempt, Message: "cancelled", Cause: err}
		}

		heights, err := e.measurer.Measure(ctx, sections, scale)
		if err != nil {
			return nil, &MeasureError{Attempt: attempt, Message: "failed to measure sections", Cause: err}
		}
		if len(heights) != len(sections) {
			return nil, &MeasureError{Attempt: attempt, Message: "measurer returned wrong number of heights"}
		}

		total := 0.0
		for _, h := range heights {
			total += h
		}
		if len(sections) > 1 {
			total += float64(len(sections)-1) * spacing
		}

		plan.Heights = heights
		plan.Scale = scale
		plan.Spacing = spacing
		plan.Total = total
		plan.Attempts = attempt
		plan.History = append(plan.History, Attempt{Scale: scale, Spacing: spacing, Total: total})

		if total <= available {
			plan.Fits = true
			return plan, nil
		}

		overage := total / available
		scale = math.Max(MinScale, scale/math.Sqrt(overage))
		spacing = math.Max(MinSpacing, spacing*SpacingShrink)
	}

	return plan, nil
}

// Layout builds the sections for profile and fits them.
func (e *Engine) Layout(ctx context.Context, profile *types.Profile, extraSkills []string, theme types.ColorTheme) (*Plan, error) {
	plan, err := e.Fit(ctx, BuildSections(profile, extraSkills))
	if err != nil {
		return nil, err
	}
	plan.Theme = theme
	return plan, nil
}
