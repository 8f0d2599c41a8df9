package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seantiz/hivegrid/internal/blueprint"
	"github.com/seantiz/hivegrid/internal/launcher"
	"github.com/seantiz/hivegrid/internal/model"
	"github.com/seantiz/hivegrid/internal/runner"
	"github.com/seantiz/hivegrid/internal/store"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 30 * time.Second
)

// Server wraps the chi router and application dependencies for one task run.
type Server struct {
	router    *chi.Mux
	store     store.Store
	registry  *blueprint.Registry
	blueprint *blueprint.Blueprint
	run       *model.TaskRun
	launcher  *launcher.Launcher
	driver    *runner.Driver
	logger    *slog.Logger
	addr      string
}

// NewServer creates and configures a new HTTP server.
func NewServer(addr string, s store.Store, reg *blueprint.Registry, bp *blueprint.Blueprint, run *model.TaskRun, l *launcher.Launcher, d *runner.Driver, logger *slog.Logger) *Server {
	srv := &Server{
		router:    chi.NewRouter(),
		store:     s,
		registry:  reg,
		blueprint: bp,
		run:       run,
		launcher:  l,
		driver:    d,
		logger:    logger,
		addr:      addr,
	}

	srv.router.Use(middleware.RequestID)
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(srv.loggingMiddleware)
	srv.router.Use(metricsMiddleware)
	srv.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	srv.routes()

	return srv
}

// routes registers all HTTP routes on the router.
func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/v1/blueprints", s.handleListBlueprints)
	s.router.Get("/v1/stats", s.handleGetStats)
	s.router.Get("/v1/run", s.handleGetRun)
	s.router.Post("/v1/expire", s.handleExpireRun)

	s.router.Route("/v1/assignments", func(r chi.Router) {
		r.Get("/", s.handleListAssignments)
		r.Get("/{id}", s.handleGetAssignment)
		r.Get("/{id}/units", s.handleListAssignmentUnits)
	})

	s.router.Route("/v1/units", func(r chi.Router) {
		r.Get("/", s.handleListEligibleUnits)
		r.Get("/{id}", s.handleGetUnit)
	})

	s.router.Post("/v1/workers", s.handleCreateWorker)

	s.router.Route("/v1/agents", func(r chi.Router) {
		r.Post("/", s.handleCreateAgent)
		r.Get("/{id}", s.handleGetAgent)
		r.Post("/{id}/status", s.handleUpdateAgentStatus)
	})
}

// Router returns the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// loggingMiddleware logs each request using the structured logger.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
