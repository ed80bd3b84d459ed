// Package api provides the REST server for the playground API. It is a thin
// wrapper: request decoding, response encoding and status mapping live here,
// all semantics live in the service package.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	v1 "github.com/kbh-legepladser/playground-api/internal/api/v1"
	"github.com/kbh-legepladser/playground-api/internal/service"
	"github.com/kbh-legepladser/playground-api/internal/versions"
)

// ServerOption configures the API server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	log         *zap.Logger
	middlewares []func(http.Handler) http.Handler
}

// WithLogger sets the logger used for request logging.
func WithLogger(log *zap.Logger) ServerOption {
	return func(cfg *serverConfig) {
		if log != nil {
			cfg.log = log
		}
	}
}

// WithMiddlewares adds middleware to the server.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// NewServer creates and configures the HTTP router with the given service.
func NewServer(svc service.Service, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{log: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(loggingMiddleware(cfg.log))
	r.Use(middleware.Recoverer)
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Get("/health", healthHandler)
	r.Get("/version", versionHandler)
	r.Mount("/v1", v1.Router(svc, cfg.log))

	return r
}

// loggingMiddleware logs each request with its status, duration and id.
func loggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	v1.WriteJSON(w, versions.GetVersionInfo(), http.StatusOK)
}
