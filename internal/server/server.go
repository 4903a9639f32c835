package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/wegman-software/osmstats-go/internal/logger"
	"github.com/wegman-software/osmstats-go/internal/store"
)

// UserStore reads persisted per-user aggregates
type UserStore interface {
	ListUsers(ctx context.Context) ([]store.UserRow, error)
	DashboardCSV(ctx context.Context) (string, error)
}

// ExportReader reads stored per-user export artifacts
type ExportReader interface {
	FetchExport(username string) (string, error)
}

// Server serves the contributor statistics dashboard and the persisted
// aggregates behind it
type Server struct {
	addr    string
	users   UserStore
	exports ExportReader
}

// New creates a dashboard server
func New(addr string, users UserStore, exports ExportReader) *Server {
	return &Server{
		addr:    addr,
		users:   users,
		exports: exports,
	}
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}))

	r.Get("/", s.handleDashboard)
	r.Get("/api/users", s.handleListUsers)
	r.Get("/api/dashboard.csv", s.handleDashboardCSV)
	r.Get("/api/users/{username}/export", s.handleUserExport)

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	log := logger.Get()

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Dashboard server listening", zap.String("addr", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("Shutting down dashboard server")
	return srv.Shutdown(shutdownCtx)
}

// requestLogger logs every request with method, path, and duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Get().Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}
