package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// StorageConfig locates the attachment bucket.
type StorageConfig struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// Enabled reports whether attachment storage is configured.
func (c StorageConfig) Enabled() bool {
	return c.Bucket != ""
}

// ServiceConfig wires the API service. Optional collaborators are disabled
// when their variables are unset.
type ServiceConfig struct {
	Port           int
	DatabaseURL    string
	AllowedOrigins []string

	GeminiAPIKey string
	AICacheTTL   time.Duration

	RedisAddr     string
	RedisPassword string

	RabbitMQURL    string
	EventsExchange string

	Storage StorageConfig

	PDFAPIURL      string
	BrowserEnabled bool
	BrowserTimeout time.Duration

	LocalCachePath string
}

// FromEnv reads the service configuration from the environment.
func FromEnv() (*ServiceConfig, error) {
	return fromLookup(os.Getenv)
}

func fromLookup(getenv func(string) string) (*ServiceConfig, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	port, err := strconv.Atoi(get("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %v", err)
	}
	cacheTTL, err := time.ParseDuration(get("AI_CACHE_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid AI_CACHE_TTL: %v", err)
	}
	browserTimeout, err := time.ParseDuration(get("BROWSER_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BROWSER_TIMEOUT: %v", err)
	}
	browserEnabled, err := strconv.ParseBool(get("BROWSER_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid BROWSER_ENABLED: %v", err)
	}

	cfg := &ServiceConfig{
		Port:           port,
		DatabaseURL:    get("DATABASE_URL", ""),
		AllowedOrigins: splitList(get("CORS_ALLOWED_ORIGINS", "*")),
		GeminiAPIKey:   get("GEMINI_API_KEY", ""),
		AICacheTTL:     cacheTTL,
		RedisAddr:      get("REDIS_ADDR", ""),
		RedisPassword:  get("REDIS_PASSWORD", ""),
		RabbitMQURL:    get("RABBITMQ_URL", ""),
		EventsExchange: get("EVENTS_EXCHANGE", "job_events"),
		Storage: StorageConfig{
			Endpoint:      get("S3_ENDPOINT", ""),
			Region:        get("S3_REGION", "auto"),
			Bucket:        get("S3_BUCKET", ""),
			AccessKey:     get("S3_ACCESS_KEY", ""),
			SecretKey:     get("S3_SECRET_KEY", ""),
			PublicBaseURL: get("S3_PUBLIC_BASE_URL", ""),
		},
		PDFAPIURL:      get("PDF_API_URL", ""),
		BrowserEnabled: browserEnabled,
		BrowserTimeout: browserTimeout,
		LocalCachePath: get("LOCAL_CACHE_PATH", "resume-tracker-cache.db"),
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize validates the configuration.
func (c *ServiceConfig) normalize() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required but not set")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got: %d", c.Port)
	}
	if c.Storage.Enabled() && c.Storage.AccessKey != "" && c.Storage.SecretKey == "" {
		return fmt.Errorf("S3_SECRET_KEY is required when S3_ACCESS_KEY is set")
	}
	if c.AICacheTTL < 0 {
		return fmt.Errorf("AI_CACHE_TTL cannot be negative")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
