// Package web serves the event map snapshot, its filter controls and the
// reload endpoints as a JSON API.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/eventmap/internal/config"
	"github.com/JonMunkholm/eventmap/internal/core"
	"github.com/JonMunkholm/eventmap/internal/metrics"
	"github.com/JonMunkholm/eventmap/internal/web/middleware"
)

// Server is the HTTP server for the event map API.
type Server struct {
	service *core.Service
	cfg     config.Config
	metrics *metrics.Recorder
	logger  *slog.Logger
	router  *chi.Mux
	server  *http.Server

	limiters []*middleware.RateLimiter
	done     chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics exposes rec at /metrics and records request metrics into it.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Server) { s.metrics = rec }
}

// WithLogger sets the logger used for server lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer builds the router. Call Start to listen.
func NewServer(service *core.Service, cfg config.Config, opts ...Option) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		logger:  slog.Default(),
		router:  chi.NewRouter(),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	var obs middleware.RequestObserver
	if s.metrics != nil {
		obs = s.metrics
	}

	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger(obs))
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst).Handler)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	auth := middleware.APIKeyAuth(s.cfg.Security)

	s.router.Route("/api", func(r chi.Router) {
		// Streams and reloads run longer than a request timeout allows.
		r.Get("/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			if s.cfg.Rate.Enabled {
				r.Use(s.newLimiter(s.cfg.Rate.ReloadLimit, 1).Handler)
			}
			r.Post("/reload", s.handleReload)
			r.Post("/reload/{sheet}", s.handleReloadSheet)
		})

		r.Group(func(r chi.Router) {
			r.Use(chimw.Compress(5))
			if s.cfg.Server.RequestTimeout > 0 {
				r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
			}

			r.Get("/snapshot", s.handleSnapshot)
			r.Get("/events", s.handleListEvents)
			r.Get("/events/{id}", s.handleGetEvent)
			r.Get("/histogram", s.handleHistogram)
			r.Get("/names", s.handleSuggestNames)
			r.Get("/people/{bioID}", s.handleGetPerson)
			r.Get("/headers", s.handleHeaders)
			r.Get("/diagnostics", s.handleDiagnostics)
			r.Get("/sheets", s.handleListSheets)

			r.Get("/filter", s.handleGetFilter)
			r.With(auth).Put("/filter", s.handlePutFilter)
			r.With(auth).Post("/filter/reset", s.handleResetFilter)
		})
	})
}

func (s *Server) newLimiter(perMinute, burst int) *middleware.RateLimiter {
	rl := middleware.NewRateLimiter(perMinute, burst)
	s.limiters = append(s.limiters, rl)
	return rl
}

// Start listens on addr and blocks until the server stops. It returns nil
// after a graceful Shutdown.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout, // 0 keeps SSE streams open
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	if s.server == nil {
		s.server = &http.Server{
			Handler:      s.router,
			ReadTimeout:  s.cfg.Server.ReadTimeout,
			WriteTimeout: s.cfg.Server.WriteTimeout,
			IdleTimeout:  s.cfg.Server.IdleTimeout,
		}
	}
	for _, rl := range s.limiters {
		go rl.Run(s.done, time.Minute)
	}

	s.logger.Info("server listening", "addr", ln.Addr().String())
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server. Open snapshot streams end when
// their request contexts are cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}
