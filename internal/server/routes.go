package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultRateLimitPerMinute is the per-IP budget for /api/v1 requests.
const DefaultRateLimitPerMinute = 60

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
	// APIKey, when set, is required in the X-API-Key header on /api/v1 routes.
	APIKey string
	// RateLimitPerMinute caps /api/v1 requests per client IP. Zero disables it.
	RateLimitPerMinute int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: DefaultRateLimitPerMinute,
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// Only the /api/v1 routes are behind the API key and rate limiter.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/merge", h.Merge)
	api.HandleFunc("POST /api/v1/longform/render", h.CreateLongform)
	api.HandleFunc("GET /api/v1/longform/status/{id}", h.LongformStatus)
	api.HandleFunc("GET /api/v1/longform/result/{id}", h.LongformResult)

	protected := ChainMiddleware(
		RateLimitMiddleware(cfg.RateLimitPerMinute),
		APIKeyMiddleware(cfg.APIKey),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Info)
	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/api/v1/", protected(api))

	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
