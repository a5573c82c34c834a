// Package api serves traces and live visualization sessions over HTTP.
//
// # Routes
//
//	POST   /traces                  upload a JSON document or network text
//	GET    /traces                  list stored traces
//	GET    /traces/{id}             fetch a stored trace
//	DELETE /traces/{id}             delete a stored trace
//	GET    /traces/{id}/render      render one frame through the batch pipeline
//	POST   /sessions                start a live session over a stored trace
//	GET    /sessions                list live sessions
//	GET    /sessions/{id}           session state
//	DELETE /sessions/{id}           stop a session
//	PUT    /sessions/{id}/frame     jump to a frame
//	POST   /sessions/{id}/next      step forward
//	POST   /sessions/{id}/previous  step back
//	GET    /sessions/{id}/scene     current frame as JSON
//	GET    /sessions/{id}/svg       current frame as SVG
//	POST   /sessions/{id}/drag      drag a node
//	PATCH  /sessions/{id}/config    change the configuration
//	GET    /healthz                 liveness
//	GET    /metrics                 Prometheus metrics, when enabled
//
// Every session ticks in its own background loop at the configured tick
// rate. Errors are reported as {"error": CODE, "message": ...} with the
// status of the code.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowscope/pkg/config"
	"github.com/matzehuels/flowscope/pkg/observability"
	"github.com/matzehuels/flowscope/pkg/pipeline"
	"github.com/matzehuels/flowscope/pkg/session"
	"github.com/matzehuels/flowscope/pkg/store"
)

// Defaults for the HTTP server.
const (
	DefaultMaxBodyBytes    = 16 << 20
	DefaultCleanupInterval = time.Minute
	DefaultShutdownTimeout = 10 * time.Second
)

// TickerFactory creates the tick source of a new session.
type TickerFactory func(rate float64) session.Ticker

// Server is the HTTP API.
type Server struct {
	store    store.Store
	sessions *session.Registry
	runner   *pipeline.Runner
	metrics  *observability.Prometheus
	logger   *log.Logger

	base         config.Config
	maxBodyBytes int64
	idleTTL      time.Duration
	newTicker    TickerFactory

	ctx    context.Context
	cancel context.CancelFunc
	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithRunner sets the pipeline runner used by the render route.
func WithRunner(r *pipeline.Runner) Option { return func(s *Server) { s.runner = r } }

// WithMetrics exposes p on /metrics and drops per-session series when
// sessions end.
func WithMetrics(p *observability.Prometheus) Option { return func(s *Server) { s.metrics = p } }

// WithConfig sets the configuration new sessions start from.
func WithConfig(cfg config.Config) Option { return func(s *Server) { s.base = cfg } }

// WithIdleTTL sets how long an untouched session lives.
func WithIdleTTL(d time.Duration) Option { return func(s *Server) { s.idleTTL = d } }

// WithMaxBodyBytes limits request bodies.
func WithMaxBodyBytes(n int64) Option { return func(s *Server) { s.maxBodyBytes = n } }

// WithTickerFactory replaces the interval ticker of new sessions.
func WithTickerFactory(f TickerFactory) Option { return func(s *Server) { s.newTicker = f } }

// New creates a server over st.
func New(st store.Store, opts ...Option) *Server {
	s := &Server{
		store:        st,
		logger:       log.Default(),
		base:         config.Default(),
		maxBodyBytes: DefaultMaxBodyBytes,
		newTicker:    session.NewIntervalTicker,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.sessions = session.NewRegistry(s.idleTTL)
	s.sessions.OnRemove(func(id string) {
		if s.metrics != nil {
			s.metrics.Forget(id)
		}
		s.logger.Debug("session removed", "session", id)
	})
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/traces", func(r chi.Router) {
		r.Post("/", s.handleCreateTrace)
		r.Get("/", s.handleListTraces)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetTrace)
			r.Delete("/", s.handleDeleteTrace)
			r.Get("/render", s.handleRenderTrace)
		})
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/", s.handleListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.withSession(s.handleGetSession))
			r.Delete("/", s.handleDeleteSession)
			r.Put("/frame", s.withSession(s.handleSetFrame))
			r.Post("/next", s.withSession(s.handleNext))
			r.Post("/previous", s.withSession(s.handlePrevious))
			r.Get("/scene", s.withSession(s.handleScene))
			r.Get("/svg", s.withSession(s.handleSVG))
			r.Post("/drag", s.withSession(s.handleDrag))
			r.Patch("/config", s.withSession(s.handlePatchConfig))
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions returns the live session registry.
func (s *Server) Sessions() *session.Registry { return s.sessions }

// Close stops every session.
func (s *Server) Close() {
	s.cancel()
	s.sessions.Close()
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully and stops every session. Idle sessions are reaped in the
// background.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go s.reap(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "sessions", s.sessions.Len())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

func (s *Server) reap(ctx context.Context) {
	t := time.NewTicker(DefaultCleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.sessions.Cleanup(); n > 0 {
				s.logger.Info("reaped idle sessions", "count", n)
			}
		}
	}
}
