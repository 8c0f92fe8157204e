package main

import (
	"fmt"
	"io"

	"github.com/jonathan/resume-tracker/internal/matching"
	"github.com/jonathan/resume-tracker/internal/observability"
	"github.com/jonathan/resume-tracker/internal/types"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a profile against the sample job postings",
	Long: `Rank the built-in sample postings by how many of their skills the profile covers.

  --title   rank postings similar to a job title instead
  --gap     list the skills a posting asks for that the profile lacks`,
	RunE: runMatch,
}

var (
	matchProfile string
	matchTitle   string
	matchGap     string
)

func init() {
	matchCmd.Flags().StringVarP(&matchProfile, "profile", "p", "", "Path to a profile JSON document")
	matchCmd.Flags().StringVar(&matchTitle, "title", "", "Find postings similar to this job title")
	matchCmd.Flags().StringVar(&matchGap, "gap", "", "Posting ID to compute the skill gap for")
	matchCmd.MarkFlagsMutuallyExclusive("title", "gap")
	rootCmd.AddCommand(matchCmd)
}

// GapOutput is the JSON shape printed by match --gap --json.
type GapOutput struct {
	Posting types.SamplePosting `json:"posting"`
	Missing []string            `json:"missing"`
}

func runMatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	override(cmd, "profile", &cfg.Profile, matchProfile)

	profile, err := loadProfile(cfg.Profile)
	if err != nil {
		return err
	}
	catalog, err := matching.Catalog()
	if err != nil {
		return err
	}
	return matchCatalog(cmd.OutOrStdout(), catalog, profile, matchTitle, matchGap)
}

// matchCatalog prints profile matches, title similarity or a skill gap.
func matchCatalog(w io.Writer, catalog []types.SamplePosting, profile *types.Profile, title, gapID string) error {
	switch {
	case gapID != "":
		posting, ok := matching.FindPosting(catalog, gapID)
		if !ok {
			return fmt.Errorf("unknown posting %q", gapID)
		}
		out := GapOutput{Posting: posting, Missing: matching.SkillGap(profile.SkillNames(), posting)}
		if jsonOutput {
			return writeJSON(w, out)
		}
		_, _ = fmt.Fprintf(w, "%s at %s\n", posting.Title, posting.Company)
		if len(out.Missing) == 0 {
			_, _ = fmt.Fprintln(w, "  Your profile covers every listed skill.")
			return nil
		}
		for _, skill := range out.Missing {
			_, _ = fmt.Fprintf(w, "  - %s\n", skill)
		}
		return nil

	case title != "":
		similar := matching.SimilarByTitle(catalog, title)
		if similar == nil {
			similar = []types.PostingMatch{}
		}
		if jsonOutput {
			return writeJSON(w, similar)
		}
		observability.NewPrinter(w).PrintPostingMatches(fmt.Sprintf("SIMILAR TO %q", title), similar)
		return nil

	default:
		ranked := matching.RankByProfile(catalog, profile.SkillNames())
		if jsonOutput {
			return writeJSON(w, ranked)
		}
		observability.NewPrinter(w).PrintPostingMatches("BEST MATCHING POSTINGS", ranked)
		return nil
	}
}
