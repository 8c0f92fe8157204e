package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-tracker/internal/assist"
	"github.com/jonathan/resume-tracker/internal/matching"
	"github.com/jonathan/resume-tracker/internal/pdfapi"
	"github.com/jonathan/resume-tracker/internal/profile"
	"github.com/jonathan/resume-tracker/internal/rendering"
	"github.com/jonathan/resume-tracker/internal/server/middleware"
	"github.com/jonathan/resume-tracker/internal/server/ratelimit"
	"github.com/jonathan/resume-tracker/internal/tracker"
	"github.com/jonathan/resume-tracker/internal/types"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the API is served from. Profiles, Jobs and
// Tokens are required; the rest disable their endpoints when nil.
type Deps struct {
	Profiles *profile.Service
	Jobs     *tracker.Service
	Assist   *assist.Service
	PDF      *pdfapi.Client
	Browser  *rendering.Browser
	Tokens   middleware.TokenValidator
	Limiter  *ratelimit.Limiter
	Store    Pinger
	// Cache is reported by /health but never fails it
	Cache Pinger
}

// Config holds server configuration
type Config struct {
	Port           int
	AllowedOrigins []string
}

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	handler        http.Handler
	profiles       *profile.Service
	jobs           *tracker.Service
	assist         *assist.Service
	pdf            *pdfapi.Client
	browser        *rendering.Browser
	store          Pinger
	cache          Pinger
	rateLimiter    *ratelimit.Limiter
	allowedOrigins []string
	catalog        []types.SamplePosting
	onShutdown     []func()
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Profiles == nil || deps.Jobs == nil {
		return nil, fmt.Errorf("profile and job services are required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("token validator is required")
	}

	catalog, err := matching.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load posting catalog: %w", err)
	}

	s := &Server{
		profiles:       deps.Profiles,
		jobs:           deps.Jobs,
		assist:         deps.Assist,
		pdf:            deps.PDF,
		browser:        deps.Browser,
		store:          deps.Store,
		cache:          deps.Cache,
		rateLimiter:    deps.Limiter,
		allowedOrigins: cfg.AllowedOrigins,
		catalog:        catalog,
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	}

	api := http.NewServeMux()

	// Profile
	api.HandleFunc("GET /v1/profile", s.handleGetProfile)
	api.HandleFunc("PUT /v1/profile", s.handleSaveProfile)
	api.HandleFunc("DELETE /v1/profile", s.handleResetProfile)
	api.HandleFunc("PUT /v1/profile/personal", s.handleUpdatePersonal)
	api.HandleFunc("PUT /v1/profile/experience", s.handleUpdateExperience)
	api.HandleFunc("PUT /v1/profile/education", s.handleUpdateEducation)
	api.HandleFunc("PUT /v1/profile/skills", s.handleUpdateSkills)
	api.HandleFunc("POST /v1/profile/skills", s.handleAddSkill)
	api.HandleFunc("GET /v1/settings", s.handleGetSettings)
	api.HandleFunc("PUT /v1/settings", s.handleSaveSettings)

	// Analysis and sample postings
	api.HandleFunc("POST /v1/analysis", s.handleAnalyze)
	api.HandleFunc("GET /v1/catalog", s.handleListCatalog)
	api.HandleFunc("GET /v1/catalog/matches", s.handleCatalogMatches)
	api.HandleFunc("GET /v1/catalog/similar", s.handleCatalogSimilar)
	api.HandleFunc("GET /v1/catalog/{id}/gap", s.handleCatalogGap)

	// Jobs
	api.HandleFunc("GET /v1/jobs", s.handleListJobs)
	api.HandleFunc("POST /v1/jobs", s.handleCreateJob)
	api.HandleFunc("GET /v1/jobs/{id}", s.handleGetJob)
	api.HandleFunc("PUT /v1/jobs/{id}", s.handleUpdateJob)
	api.HandleFunc("DELETE /v1/jobs/{id}", s.handleDeleteJob)
	api.HandleFunc("PUT /v1/jobs/{id}/status", s.handleSetJobStatus)
	api.HandleFunc("POST /v1/jobs/{id}/attachments", s.handleAddAttachments)
	api.HandleFunc("DELETE /v1/jobs/{id}/attachments/{attachment_id}", s.handleRemoveAttachment)
	api.HandleFunc("POST /v1/jobs/{id}/attachments/{attachment_id}/analyze", s.handleAnalyzeAttachment)

	// Resume output
	api.HandleFunc("GET /v1/themes", s.handleListThemes)
	api.HandleFunc("POST /v1/resume/layout", s.handleResumeLayout)
	api.HandleFunc("POST /v1/resume/pdf", s.handleResumePDF)

	// AI assistance
	api.HandleFunc("POST /v1/assist/summary", s.handleAssistSummary)
	api.HandleFunc("POST /v1/assist/bullets", s.handleAssistBullets)
	api.HandleFunc("POST /v1/assist/cover-letter", s.handleAssistCoverLetter)
	api.HandleFunc("POST /v1/assist/skills", s.handleAssistSkills)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("/v1/", middleware.AuthMiddleware(deps.Tokens)(api))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // PDF rendering and AI calls
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// OnShutdown registers fn to run after the HTTP server has stopped.
func (s *Server) OnShutdown(fn func()) {
	s.onShutdown = append(s.onShutdown, fn)
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[server] starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("[server] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	s.rateLimiter.Stop()
	for i := len(s.onShutdown) - 1; i >= 0; i-- {
		s.onShutdown[i]()
	}
	log.Println("[server] stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "X-Page-Count, X-Layout-Scale, X-RateLimit-Remaining")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) string {
	if len(s.allowedOrigins) == 0 || slices.Contains(s.allowedOrigins, "*") {
		return "*"
	}
	if slices.Contains(s.allowedOrigins, origin) {
		return origin
	}
	return ""
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[%s] %s %d in %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// handleHealth reports server health and store reachability. An unreachable
// cache only changes the "cache" field since requests bypass it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{"status": "ok"}
	if s.cache != nil {
		body["cache"] = "ok"
		if err := s.cache.Ping(ctx); err != nil {
			body["cache"] = "bypass"
		}
	}
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			log.Printf("[server] health check: store unreachable: %v", err)
			body["status"] = "degraded"
			body["store"] = "unreachable"
			s.jsonResponse(w, http.StatusServiceUnavailable, body)
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, body)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[server] error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// failure maps err to a status and writes it. Server-side failures are logged.
func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[server] %s %s failed: %v", r.Method, r.URL.Path, err)
	}
	s.errorResponse(w, status, err.Error())
}

// identity returns the authenticated caller.
func (s *Server) identity(r *http.Request) (uuid.UUID, string, error) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		return uuid.Nil, "", err
	}
	return userID, middleware.GetEmail(r), nil
}

// pathUUID parses a UUID path value.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: name, Message: fmt.Sprintf("%q is not a valid id", raw)}
	}
	return id, nil
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := max(int(info.RetryAfter.Seconds()), 1)
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
