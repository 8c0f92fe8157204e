package main

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jonathan/resume-tracker/internal/config"
	"github.com/jonathan/resume-tracker/internal/server"
	"github.com/spf13/cobra"
)

var devTokenCmd = &cobra.Command{
	Use:   "dev-token",
	Short: "Mint a bearer token for local development",
	Long: `Sign a token with JWT_SECRET the same way the identity provider does, so the API
can be exercised locally with curl. Never use this against production secrets.`,
	RunE: runDevToken,
}

var (
	devTokenUser  string
	devTokenEmail string
)

func init() {
	devTokenCmd.Flags().StringVar(&devTokenUser, "user", "", "User ID to embed (random when empty)")
	devTokenCmd.Flags().StringVar(&devTokenEmail, "email", "dev@example.com", "Email claim")
	rootCmd.AddCommand(devTokenCmd)
}

func runDevToken(cmd *cobra.Command, _ []string) error {
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	return mintToken(cmd.OutOrStdout(), server.NewJWTService(jwtConfig), devTokenUser, devTokenEmail)
}

func mintToken(w io.Writer, jwtService *server.JWTService, user, email string) error {
	userID := uuid.New()
	if user != "" {
		parsed, err := uuid.Parse(user)
		if err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}
		userID = parsed
	}
	token, err := jwtService.GenerateToken(userID, email)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(w, map[string]string{"userId": userID.String(), "email": email, "token": token})
	}
	_, _ = fmt.Fprintf(w, "User:  %s\nToken: %s\n", userID, token)
	return nil
}
