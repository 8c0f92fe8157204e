package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jonathan/resume-tracker/internal/assist"
	"github.com/jonathan/resume-tracker/internal/fetch"
	"github.com/jonathan/resume-tracker/internal/keywords"
	"github.com/jonathan/resume-tracker/internal/llm"
	"github.com/jonathan/resume-tracker/internal/matching"
	"github.com/jonathan/resume-tracker/internal/observability"
	"github.com/jonathan/resume-tracker/internal/rendering"
	"github.com/jonathan/resume-tracker/internal/types"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compare a job description with a profile's skills",
	Long: `Extract skill keywords from a job description (text, HTML, PDF or DOCX) and split
them into skills the profile already covers and skills it is missing.

With --job-url the posting is downloaded from its job board instead; --use-browser
renders pages that build their content with JavaScript.

With --suggest, Gemini proposes skills to add (requires GEMINI_API_KEY or --api-key).`,
	RunE: runAnalyze,
}

var (
	analyzeJob        string
	analyzeJobURL     string
	analyzeUseBrowser bool
	analyzeProfile    string
	analyzeSuggest    bool
	analyzeAPIKey     string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeJob, "job", "j", "", "Path to the job description (\"-\" for stdin)")
	analyzeCmd.Flags().StringVar(&analyzeJobURL, "job-url", "", "URL of a job posting to fetch")
	analyzeCmd.Flags().BoolVar(&analyzeUseBrowser, "use-browser", false, "Render the posting in headless Chrome when its static HTML is too short")
	analyzeCmd.Flags().StringVarP(&analyzeProfile, "profile", "p", "", "Path to a profile JSON document")
	analyzeCmd.Flags().BoolVar(&analyzeSuggest, "suggest", false, "Ask the model for skills to add")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	analyzeCmd.MarkFlagsMutuallyExclusive("job", "job-url")
	rootCmd.AddCommand(analyzeCmd)
}

// AnalyzeOutput is the JSON shape printed by analyze --json.
type AnalyzeOutput struct {
	types.SkillMatch
	Suggestions []string `json:"suggestions,omitempty"`
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	override(cmd, "job", &cfg.Job, analyzeJob)
	override(cmd, "profile", &cfg.Profile, analyzeProfile)
	override(cmd, "api-key", &cfg.APIKey, analyzeAPIKey)

	var text string
	if analyzeJobURL != "" {
		text, err = fetchJobDescription(cmdContext(cmd), analyzeJobURL, analyzeUseBrowser)
	} else {
		text, err = readJobDescription(cfg.Job, cmd.InOrStdin())
	}
	if err != nil {
		return err
	}
	profile, err := loadProfile(cfg.Profile)
	if err != nil {
		return err
	}

	out := AnalyzeOutput{SkillMatch: analyzeText(text, profile)}
	if analyzeSuggest {
		out.Suggestions, err = suggestSkills(cmdContext(cmd), cfg.APIKey, profile, text)
		if err != nil {
			return err
		}
	}
	return printAnalysis(cmd.OutOrStdout(), out)
}

// fetchJobDescription downloads a posting and normalizes its text the same
// way as a description read from disk.
func fetchJobDescription(ctx context.Context, url string, useBrowser bool) (string, error) {
	opts := &fetch.Options{}
	if useBrowser {
		browser, err := rendering.NewBrowser(0)
		if err != nil {
			return "", err
		}
		defer browser.Close()
		opts.Renderer = browser
	}

	posting, err := fetch.JobPosting(ctx, url, opts)
	if err != nil {
		return "", err
	}
	if verbose {
		log.Printf("[analyze] fetched %q from %s (%s, %d characters)", posting.Title, url, posting.Platform, len(posting.Text))
	}
	text := keywords.NormalizeDescription(posting.Text)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("job posting %s has no description", url)
	}
	return text, nil
}

// analyzeText runs keyword extraction and skill matching on normalized text.
func analyzeText(text string, profile *types.Profile) types.SkillMatch {
	return matching.Analyze(keywords.Extract(text), profile, text)
}

func suggestSkills(ctx context.Context, apiKey string, profile *types.Profile, text string) ([]string, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("--suggest requires GEMINI_API_KEY or --api-key")
	}
	client, err := llm.NewGeminiClient(ctx, llm.ConfigFromEnv(), apiKey)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	return assist.NewService(client, nil, 0).SuggestSkills(ctx, assist.SkillsRequest{
		Profile:        profile,
		JobDescription: text,
	})
}

func printAnalysis(w io.Writer, out AnalyzeOutput) error {
	if jsonOutput {
		return writeJSON(w, out)
	}
	printer := observability.NewPrinter(w)
	printer.PrintSkillMatch(&out.SkillMatch)
	if len(out.Suggestions) > 0 {
		_, _ = fmt.Fprintln(w, "Suggested skills:")
		for _, s := range out.Suggestions {
			_, _ = fmt.Fprintf(w, "  + %s\n", s)
		}
	}
	return nil
}
