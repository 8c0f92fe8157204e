package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonathan/resume-tracker/internal/config"
	"github.com/jonathan/resume-tracker/internal/documents"
	"github.com/jonathan/resume-tracker/internal/keywords"
	"github.com/jonathan/resume-tracker/internal/schemas"
	"github.com/jonathan/resume-tracker/internal/types"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	jsonOutput bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}

// loadFileConfig reads and validates --config when it is set.
func loadFileConfig() (config.Config, error) {
	if configPath == "" {
		return config.Config{}, nil
	}
	loaded, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return config.Config{}, err
	}
	if verbose {
		_, _ = fmt.Fprintf(os.Stderr, "Loaded config from: %s\n", configPath)
	}
	return *loaded, nil
}

// override copies value into dst when the flag was set explicitly, so
// command-line arguments take priority over the config file.
func override(cmd *cobra.Command, name string, dst *string, value string) {
	if cmd.Flags().Changed(name) {
		*dst = value
	}
}

// loadProfile reads a profile document. An empty path yields an empty profile.
func loadProfile(path string) (*types.Profile, error) {
	if path == "" {
		return types.EmptyProfile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	profile, err := schemas.ParseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return profile, nil
}

// readJobDescription returns the normalized text of a job description file.
// PDF, DOCX and HTML files are converted; anything else is read as text.
// "-" reads standard input.
func readJobDescription(path string, stdin io.Reader) (string, error) {
	if path == "" {
		return "", fmt.Errorf("a job description is required (--job)")
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}

	mime := documents.DetectMimeType("", path)
	if mime != documents.MimePDF && mime != documents.MimeDOCX && mime != documents.MimeHTML {
		mime = documents.MimeText
	}
	text, err := documents.ExtractText(mime, data)
	if err != nil {
		return "", err
	}
	text = keywords.NormalizeDescription(text)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("job description %s is empty", path)
	}
	return text, nil
}

// writeJSON prints v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// databaseURL prefers the flag or config value and falls back to DATABASE_URL.
func databaseURL(value string) (string, error) {
	if value == "" {
		value = os.Getenv("DATABASE_URL")
	}
	if value == "" {
		return "", fmt.Errorf("DATABASE_URL environment variable or --db-url is required")
	}
	return value, nil
}
