package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-tracker/internal/db"
	"github.com/jonathan/resume-tracker/internal/observability"
	"github.com/jonathan/resume-tracker/internal/search"
	"github.com/jonathan/resume-tracker/internal/types"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search tracked jobs",
	Long: `Rank a user's tracked jobs against a query. Jobs are read from the database
(--user) or from a JSON export (--jobs).

With --interactive, each line typed on stdin replaces the query; results are
printed once the input has been quiet for the debounce interval.`,
	RunE: runSearch,
}

var (
	searchUser        string
	searchJobsFile    string
	searchDBURL       string
	searchInteractive bool
	searchDebounce    time.Duration
)

func init() {
	searchCmd.Flags().StringVar(&searchUser, "user", "", "User ID whose jobs are searched")
	searchCmd.Flags().StringVar(&searchJobsFile, "jobs", "", "Path to a JSON array of jobs (instead of the database)")
	searchCmd.Flags().StringVar(&searchDBURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	searchCmd.Flags().BoolVarP(&searchInteractive, "interactive", "i", false, "Read queries from stdin as you type")
	searchCmd.Flags().DurationVar(&searchDebounce, "debounce", search.DefaultDebounce, "Quiet period before an interactive query runs")
	searchCmd.MarkFlagsMutuallyExclusive("user", "jobs")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	jobs, err := loadJobs(cmdContext(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchInteractive {
		return interactiveSearch(cmd.InOrStdin(), out, jobs, searchDebounce)
	}
	return printResults(out, strings.Join(args, " "), search.Rank(strings.Join(args, " "), jobs))
}

func loadJobs(ctx context.Context) ([]types.Job, error) {
	if searchJobsFile != "" {
		return readJobsFile(searchJobsFile)
	}
	if searchUser == "" {
		return nil, fmt.Errorf("either --user or --jobs is required")
	}
	userID, err := uuid.Parse(searchUser)
	if err != nil {
		return nil, fmt.Errorf("invalid --user: %w", err)
	}

	fileCfg, err := loadFileConfig()
	if err != nil {
		return nil, err
	}
	url := searchDBURL
	if url == "" {
		url = fileCfg.DatabaseURL
	}
	url, err = databaseURL(url)
	if err != nil {
		return nil, err
	}
	database, err := db.Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	defer database.Close()
	return database.ListJobs(ctx, userID)
}

func readJobsFile(path string) ([]types.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs file: %w", err)
	}
	var jobs []types.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse jobs file: %w", err)
	}
	return jobs, nil
}

func printResults(w io.Writer, query string, results []search.Result) error {
	if jsonOutput {
		return writeJSON(w, results)
	}
	observability.NewPrinter(w).PrintSearchResults(query, results)
	return nil
}

// interactiveSearch ranks jobs for the latest line read from in. Lines typed
// faster than delay replace each other; the last pending query runs at EOF.
func interactiveSearch(in io.Reader, out io.Writer, jobs []types.Job, delay time.Duration) error {
	var mu sync.Mutex
	debouncer := search.NewDebouncer(delay, func(query string) {
		mu.Lock()
		defer mu.Unlock()
		_ = printResults(out, query, search.Rank(query, jobs))
	})

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		debouncer.Submit(scanner.Text())
	}
	debouncer.Flush()
	debouncer.Stop()
	return scanner.Err()
}
