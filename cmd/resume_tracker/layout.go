package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/jonathan/resume-tracker/internal/config"
	"github.com/jonathan/resume-tracker/internal/layout"
	"github.com/jonathan/resume-tracker/internal/observability"
	"github.com/jonathan/resume-tracker/internal/pdfapi"
	"github.com/jonathan/resume-tracker/internal/rendering"
	"github.com/jonathan/resume-tracker/internal/types"
	"github.com/jonathan/resume-tracker/internal/validation"
	"github.com/spf13/cobra"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Fit a profile onto one page and print the layout plan",
	RunE:  runLayout,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a profile as a one-page PDF resume",
	Long: `Render a profile to PDF, either locally with headless Chrome (requires Chrome)
or with the external PDF service (--renderer remote, requires --pdf-api-url).`,
	RunE: runRender,
}

var (
	resumeProfile  string
	resumeTheme    string
	resumeColor    string
	resumeSkills   []string
	resumeMeasurer string
	resumeRenderer string
	resumeOutput   string
	resumePDFAPI   string
)

func init() {
	for _, cmd := range []*cobra.Command{layoutCmd, renderCmd} {
		cmd.Flags().StringVarP(&resumeProfile, "profile", "p", "", "Path to a profile JSON document")
		cmd.Flags().StringVarP(&resumeTheme, "theme", "t", "", "Color theme ID, or \"custom\" with --color")
		cmd.Flags().StringVar(&resumeColor, "color", "", "Custom heading color as #RRGGBB")
		cmd.Flags().StringSliceVar(&resumeSkills, "extra-skill", nil, "Skill to add to this resume only (repeatable)")
		cmd.Flags().StringVar(&resumeMeasurer, "measurer", "", "Height measurer: text or browser")
	}
	renderCmd.Flags().StringVar(&resumeRenderer, "renderer", "", "PDF renderer: local or remote")
	renderCmd.Flags().StringVarP(&resumeOutput, "output", "o", "resume.pdf", "Output PDF path")
	renderCmd.Flags().StringVar(&resumePDFAPI, "pdf-api-url", "", "External PDF service URL (defaults to PDF_API_URL env var)")

	rootCmd.AddCommand(layoutCmd, renderCmd)
}

// resumeConfig merges the config file with the resume flags. measurer is used
// when neither names one.
func resumeConfig(cmd *cobra.Command, measurer string) (config.Config, error) {
	cfg, err := loadFileConfig()
	if err != nil {
		return cfg, err
	}
	override(cmd, "profile", &cfg.Profile, resumeProfile)
	override(cmd, "theme", &cfg.Theme, resumeTheme)
	override(cmd, "color", &cfg.CustomColor, resumeColor)
	override(cmd, "measurer", &cfg.Measurer, resumeMeasurer)
	if cmd.Flags().Changed("extra-skill") {
		cfg.ExtraSkills = resumeSkills
	}
	if cmd.Flags().Lookup("renderer") != nil {
		override(cmd, "renderer", &cfg.Renderer, resumeRenderer)
		override(cmd, "output", &cfg.Output, resumeOutput)
		override(cmd, "pdf-api-url", &cfg.PDFAPIURL, resumePDFAPI)
	}
	if cfg.PDFAPIURL == "" {
		cfg.PDFAPIURL = os.Getenv("PDF_API_URL")
	}

	merged := cfg.MergeWithDefaults(config.Config{Output: resumeOutput, Measurer: measurer})
	merged.Measurer = strings.ToLower(merged.Measurer)
	merged.Renderer = strings.ToLower(merged.Renderer)
	if err := merged.Validate(); err != nil {
		return merged, err
	}
	return merged, nil
}

func runLayout(cmd *cobra.Command, _ []string) error {
	cfg, err := resumeConfig(cmd, config.MeasurerText)
	if err != nil {
		return err
	}
	profile, theme, err := resumeInputs(cfg)
	if err != nil {
		return err
	}

	var browser *rendering.Browser
	if cfg.Measurer == config.MeasurerBrowser {
		browser, err = rendering.NewBrowser(0)
		if err != nil {
			return err
		}
		defer browser.Close()
	}

	plan, err := planResume(cmdContext(cmd), browser, cfg.Measurer, profile, cfg.ExtraSkills, theme)
	if err != nil {
		return err
	}
	return printPlan(cmd.OutOrStdout(), plan)
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, err := resumeConfig(cmd, config.MeasurerBrowser)
	if err != nil {
		return err
	}
	profile, theme, err := resumeInputs(cfg)
	if err != nil {
		return err
	}
	ctx := cmdContext(cmd)
	out := cmd.OutOrStdout()

	var pdf []byte
	if cfg.Renderer == config.RendererRemote {
		client := pdfapi.NewClient(cfg.PDFAPIURL, &http.Client{Timeout: pdfAPITimeout})
		pdf, err = client.Generate(ctx, pdfapi.NewGenerateRequest(profile, cfg.ExtraSkills, theme))
		if err != nil {
			return err
		}
	} else {
		browser, err := rendering.NewBrowser(0)
		if err != nil {
			return err
		}
		defer browser.Close()

		plan, err := planResume(ctx, browser, cfg.Measurer, profile, cfg.ExtraSkills, theme)
		if err != nil {
			return err
		}
		if verbose {
			_ = printPlan(out, plan)
		}
		pdf, err = rendering.PrintPDF(ctx, browser, plan)
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(cfg.Output, pdf, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.Output, err)
	}
	_, _ = fmt.Fprintf(out, "Wrote %s (%d bytes)\n", cfg.Output, len(pdf))

	report, err := validation.CheckPageCount(pdf, validation.MaxResumePages)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: could not count pages: %v\n", err)
		return nil
	}
	observability.NewPrinter(out).PrintPageReport(report)
	return nil
}

func resumeInputs(cfg config.Config) (*types.Profile, types.ColorTheme, error) {
	theme, err := types.ResolveTheme(cfg.Theme, cfg.CustomColor)
	if err != nil {
		return nil, types.ColorTheme{}, err
	}
	profile, err := loadProfile(cfg.Profile)
	if err != nil {
		return nil, types.ColorTheme{}, err
	}
	return profile, theme, nil
}

// planResume fits the profile with the named measurer. browser is only
// needed for the browser measurer.
func planResume(ctx context.Context, browser *rendering.Browser, measurer string, profile *types.Profile, extra []string, theme types.ColorTheme) (*layout.Plan, error) {
	page := layout.LetterPage()
	var m layout.Measurer = layout.NewTextMeasurer(page)
	if measurer == config.MeasurerBrowser {
		if browser == nil {
			return nil, fmt.Errorf("the browser measurer requires Chrome")
		}
		m = rendering.NewBrowserMeasurer(browser, page, theme)
	}
	return layout.NewEngine(m, page).Layout(ctx, profile, extra, theme)
}

func printPlan(w io.Writer, plan *layout.Plan) error {
	if jsonOutput {
		return writeJSON(w, plan)
	}
	observability.NewPrinter(w).PrintLayoutPlan(plan)
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
