package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mixdown/internal/catalog"
	"mixdown/internal/config"
	"mixdown/internal/jobs"
	"mixdown/internal/logging"
	"mixdown/internal/merge"
	"mixdown/internal/notifications"
	"mixdown/internal/services"
	"mixdown/internal/sources"
)

// Server hosts the mixdown HTTP API.
type Server struct {
	cfg      *config.Config
	pipeline *merge.Pipeline
	jobs     *jobs.Store
	catalog  *catalog.Synchronizer
	notifier notifications.Service
	logger   *slog.Logger
	router   *chi.Mux
	http     *http.Server
}

// NewServer wires the router and middleware around the pipeline and its
// stores.
func NewServer(cfg *config.Config, pipeline *merge.Pipeline, jobStore *jobs.Store, syncer *catalog.Synchronizer, notifier notifications.Service, logger *slog.Logger) *Server {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	s := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		jobs:     jobStore,
		catalog:  syncer,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "api"),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	// Merges run inline in the request; the timeout bounds stuck external
	// tools and remote fetches.
	s.router.Use(middleware.Timeout(10 * time.Minute))
	s.router.Use(s.bearerAuth)
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/merge", s.handleMerge)
		r.Post("/test-notify", s.handleTestNotify)
		r.Get("/status", s.handleStatus)
		r.Get("/jobs", s.handleJobs)
		r.Get("/jobs/{id}", s.handleJob)
		r.Get("/catalog", s.handleCatalog)
		r.Patch("/catalog/{id}", s.handleCatalogPatch)
		r.Delete("/catalog/{id}", s.handleCatalogRemove)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on the configured bind address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.APIBind)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "api", "listen", s.cfg.APIBind, err)
	}
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(listener)
	}()

	s.logger.Info("api listening", logging.String("addr", listener.Addr().String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// bearerAuth enforces the configured API token. An empty token disables
// authentication (local-only binds).
func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(s.cfg.APIToken)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			s.logger.Warn("unauthorized request",
				logging.String("path", r.URL.Path),
				logging.String("remote_addr", r.RemoteAddr),
			)
			respondJSON(w, http.StatusUnauthorized, errorResponse{Message: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError maps pipeline failures to HTTP statuses: caller-input errors
// are 4xx, missing resources 404, everything else 500.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case services.IsClientError(err),
		errors.Is(err, sources.ErrInvalidReference),
		errors.Is(err, sources.ErrFetch):
		status = http.StatusBadRequest
	}
	s.logger.Error("request failed",
		logging.String("path", r.URL.Path),
		logging.String("method", r.Method),
		logging.Int("status", status),
		logging.String("request_id", middleware.GetReqID(r.Context())),
		logging.Error(err),
	)
	if message == "" {
		message = "request failed"
	}
	respondJSON(w, status, errorResponse{Message: message + ": " + err.Error()})
}
