package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jonathan/resume-tracker/internal/assist"
	"github.com/jonathan/resume-tracker/internal/cache"
	"github.com/jonathan/resume-tracker/internal/config"
	"github.com/jonathan/resume-tracker/internal/db"
	"github.com/jonathan/resume-tracker/internal/events"
	"github.com/jonathan/resume-tracker/internal/llm"
	"github.com/jonathan/resume-tracker/internal/pdfapi"
	"github.com/jonathan/resume-tracker/internal/profile"
	"github.com/jonathan/resume-tracker/internal/rendering"
	"github.com/jonathan/resume-tracker/internal/server"
	"github.com/jonathan/resume-tracker/internal/server/ratelimit"
	"github.com/jonathan/resume-tracker/internal/storage"
	"github.com/jonathan/resume-tracker/internal/tracker"
	"github.com/spf13/cobra"
)

// pdfAPITimeout bounds one call to the external renderer.
const pdfAPITimeout = 60 * time.Second

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server exposing the profile, job tracking, analysis, resume and
assistance endpoints. Configuration is read from the environment (see .env).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return err
	}

	var shutdown []func()
	shutdown = append(shutdown, database.Close)

	// Optional collaborators are disabled, not fatal, when unavailable.
	var mirror profile.Mirror
	if m, err := cache.OpenLocalMirror(cfg.LocalCachePath); err != nil {
		log.Printf("[serve] local profile mirror disabled: %v", err)
	} else {
		mirror = m
		shutdown = append(shutdown, func() { _ = m.Close() })
	}

	var files tracker.ObjectStore
	if cfg.Storage.Enabled() {
		store, err := storage.New(ctx, storage.Config{
			Endpoint:      cfg.Storage.Endpoint,
			Region:        cfg.Storage.Region,
			Bucket:        cfg.Storage.Bucket,
			AccessKey:     cfg.Storage.AccessKey,
			SecretKey:     cfg.Storage.SecretKey,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			log.Printf("[serve] attachment storage disabled: %v", err)
		} else {
			files = store
		}
	} else {
		log.Printf("[serve] S3_BUCKET not set, attachment storage disabled")
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitMQURL != "" {
		p, err := events.DialAMQP(cfg.RabbitMQURL, cfg.EventsExchange)
		if err != nil {
			log.Printf("[serve] job events disabled: %v", err)
		} else {
			publisher = p
		}
	}
	shutdown = append(shutdown, func() { _ = publisher.Close() })

	var completions llm.Client
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewGeminiClient(ctx, llm.ConfigFromEnv(), cfg.GeminiAPIKey)
		if err != nil {
			log.Printf("[serve] AI assistance disabled: %v", err)
		} else {
			completions = client
			shutdown = append(shutdown, func() { _ = client.Close() })
		}
	} else {
		log.Printf("[serve] GEMINI_API_KEY not set, AI assistance disabled")
	}
	redis := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	shutdown = append(shutdown, func() { _ = redis.Close() })

	var pdf *pdfapi.Client
	if cfg.PDFAPIURL != "" {
		pdf = pdfapi.NewClient(cfg.PDFAPIURL, &http.Client{Timeout: pdfAPITimeout})
	}

	var browser *rendering.Browser
	if cfg.BrowserEnabled {
		b, err := rendering.NewBrowser(cfg.BrowserTimeout)
		if err != nil {
			log.Printf("[serve] local PDF rendering disabled: %v", err)
		} else {
			browser = b
			shutdown = append(shutdown, b.Close)
		}
	}

	jwtService := server.NewJWTService(jwtConfig)
	srv, err := server.New(server.Config{
		Port:           cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins,
	}, server.Deps{
		Profiles: profile.NewService(database, mirror),
		Jobs:     tracker.NewService(database, files, publisher),
		Assist:   assist.NewService(completions, redis, cfg.AICacheTTL),
		PDF:      pdf,
		Browser:  browser,
		Tokens:   jwtService.AsTokenValidator(),
		Limiter:  ratelimit.NewLimiter(ratelimit.LoadConfig()),
		Store:    database,
		Cache:    redis,
	})
	if err != nil {
		for i := len(shutdown) - 1; i >= 0; i-- {
			shutdown[i]()
		}
		return fmt.Errorf("failed to create server: %w", err)
	}
	for _, fn := range shutdown {
		srv.OnShutdown(fn)
	}

	return srv.Start()
}
