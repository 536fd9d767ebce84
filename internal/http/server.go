package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
)

// Options configures the API server. Zero RateLimitPerMinute disables
// rate limiting.
type Options struct {
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	IPResolver         *security.IPResolver
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	service     ExpenseService
	rateLimiter *ratelimit.Limiter
	logger      *applog.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc ExpenseService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	resolver := opts.IPResolver
	if resolver == nil {
		resolver, _ = security.NewIPResolver()
	}

	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		service: svc,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(applog.Middleware(logger))
	r.Use(trace.NewMiddleware(logger, resolver.ClientIP).Handler)
	r.Use(recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{trace.HeaderRequestID, "Retry-After"},
		MaxAge:         300,
	}))

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Get("/", handleRoot)
	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	expenses := &expenseHandler{service: svc}
	r.Route("/api/expenses", func(r chi.Router) {
		if opts.RateLimitPerMinute > 0 {
			s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
			r.Use(s.rateLimiter.Middleware(resolver.ClientIP, isReadOnly, onRateLimited))
		}
		expenses.routes(r)
	})

	s.Handler = r
	return s
}

func isReadOnly(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
	respondFailure(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
