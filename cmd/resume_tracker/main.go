// Package main provides the entry point for the resume tracker API server and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume_tracker",
	Short: "Resume Tracker API server and CLI",
	Long: `Resume Tracker keeps a master resume profile and a log of job applications,
matches job descriptions against the profile's skills, and lays the profile out
as a one-page PDF resume.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
