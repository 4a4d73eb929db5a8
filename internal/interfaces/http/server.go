// Package http exposes the composite scoring engine over a JSON API:
// single and batch scoring, benchmark inspection, health, and Prometheus
// metrics.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/alphascore/alphascore/internal/application"
	"github.com/alphascore/alphascore/internal/metrics"
	"github.com/alphascore/alphascore/internal/net/ratelimit"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration

	// Per-client request throttling for the /v1 endpoints.
	RateRPS   float64
	RateBurst int
}

// DefaultServerConfig returns sensible local defaults. ALPHASCORE_PORT
// overrides the listen port.
func DefaultServerConfig() ServerConfig {
	port := 8090
	if raw := os.Getenv("ALPHASCORE_PORT"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed < 65536 {
			port = parsed
		} else {
			log.Warn().Str("value", raw).Msg("Ignoring invalid ALPHASCORE_PORT")
		}
	}

	return ServerConfig{
		Host:           "127.0.0.1",
		Port:           port,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 25 * time.Second,
		RateRPS:        10,
		RateBurst:      20,
	}
}

// Server is the scoring API server.
type Server struct {
	config   ServerConfig
	router   *mux.Router
	server   *http.Server
	handlers *Handlers
	limiter  *ratelimit.Limiter
}

// NewServer builds the API server and verifies the configured port is
// free, so startup failures surface immediately instead of at first
// request.
func NewServer(config ServerConfig, engine *application.Engine, pipeline *application.Pipeline, registry *metrics.Registry, version string) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("http server requires a scoring engine")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("http server requires a scoring pipeline")
	}
	if registry == nil {
		return nil, fmt.Errorf("http server requires a metrics registry")
	}

	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("port %d unavailable: %w", config.Port, err)
	}
	listener.Close()

	s := &Server{
		config:   config,
		handlers: NewHandlers(engine, pipeline, registry, version),
		limiter:  ratelimit.NewLimiter(config.RateRPS, config.RateBurst),
	}
	s.router = s.buildRouter()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s, nil
}

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.timeoutMiddleware)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusNotFound, fmt.Sprintf("no route for %s %s", req.Method, req.URL.Path), nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusMethodNotAllowed, fmt.Sprintf("%s not allowed on %s", req.Method, req.URL.Path), nil)
	})

	r.HandleFunc("/health", s.handlers.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.handlers.metrics.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.NotFoundHandler = r.NotFoundHandler
	v1.MethodNotAllowedHandler = r.MethodNotAllowedHandler
	v1.Use(s.rateLimitMiddleware)
	v1.HandleFunc("/score", s.handlers.handleScore).Methods(http.MethodPost)
	v1.HandleFunc("/score/batch", s.handlers.handleScoreBatch).Methods(http.MethodPost)
	v1.HandleFunc("/benchmarks/{sector}", s.handlers.handleBenchmarks).Methods(http.MethodGet)

	return r
}

// Router exposes the configured handler tree, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start() error {
	log.Info().
		Str("addr", s.server.Addr).
		Float64("rate_rps", s.config.RateRPS).
		Msg("Scoring API listening")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down scoring API")
	return s.server.Shutdown(ctx)
}

// responseWrapper captures the status code for request logging.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Dur("duration", time.Since(start)).
			Str("request_id", requestIDFrom(r.Context())).
			Msg("Request handled")
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientKey(r)) {
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, retry later", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller for rate limiting. The port is stripped
// so reconnecting clients share one bucket.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, details []ValidationError) {
	writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      status,
		RequestID: requestIDFrom(r.Context()),
		Timestamp: time.Now().UTC(),
		Details:   details,
	})
}
