// Package config provides configuration loading and validation for the CLI
// and the API service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/resume-tracker/internal/types"
)

// Measurer names accepted by the layout commands.
const (
	MeasurerText    = "text"
	MeasurerBrowser = "browser"
)

// Renderer names accepted by the render command and the PDF endpoint.
const (
	RendererLocal  = "local"
	RendererRemote = "remote"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Inputs
	Profile string `json:"profile,omitempty"` // Path to a profile JSON document
	Job     string `json:"job,omitempty"`     // Path to a job description (text, HTML, PDF or DOCX)

	// Resume output
	Theme       string   `json:"theme,omitempty"`        // Color theme preset ID, or "custom"
	CustomColor string   `json:"custom_color,omitempty"` // #RRGGBB used with the custom theme
	ExtraSkills []string `json:"extra_skills,omitempty"` // Ad-hoc skills appended to the skills section
	Measurer    string   `json:"measurer,omitempty"`     // "text" or "browser"
	Renderer    string   `json:"renderer,omitempty"`     // "local" or "remote"
	Output      string   `json:"output,omitempty"`       // Output file path

	// Services
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	PDFAPIURL   string `json:"pdf_api_url,omitempty"`  // External PDF rendering service

	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required fields are checked by the commands after merging with flags.
func (c *Config) Validate() error {
	if c.Theme != "" {
		if _, err := types.ResolveTheme(c.Theme, c.CustomColor); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	switch strings.ToLower(c.Measurer) {
	case "", MeasurerText, MeasurerBrowser:
	default:
		return fmt.Errorf("config error: 'measurer' must be %q or %q, got %q", MeasurerText, MeasurerBrowser, c.Measurer)
	}

	switch strings.ToLower(c.Renderer) {
	case "", RendererLocal, RendererRemote:
	default:
		return fmt.Errorf("config error: 'renderer' must be %q or %q, got %q", RendererLocal, RendererRemote, c.Renderer)
	}
	if strings.EqualFold(c.Renderer, RendererRemote) && c.PDFAPIURL == "" {
		return fmt.Errorf("config error: 'pdf_api_url' is required for the remote renderer")
	}

	for name, path := range map[string]string{"profile": c.Profile, "job": c.Job} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("config error: %s file not found: %s", name, path)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&result.Profile, defaults.Profile)
	fill(&result.Job, defaults.Job)
	fill(&result.Theme, defaults.Theme)
	fill(&result.CustomColor, defaults.CustomColor)
	fill(&result.Measurer, defaults.Measurer)
	fill(&result.Renderer, defaults.Renderer)
	fill(&result.Output, defaults.Output)
	fill(&result.DatabaseURL, defaults.DatabaseURL)
	fill(&result.APIKey, defaults.APIKey)
	fill(&result.PDFAPIURL, defaults.PDFAPIURL)

	if len(result.ExtraSkills) == 0 {
		result.ExtraSkills = defaults.ExtraSkills
	}

	// Final fallbacks
	fill(&result.Theme, types.DefaultThemeID)
	fill(&result.Measurer, MeasurerText)
	fill(&result.Renderer, RendererLocal)

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
