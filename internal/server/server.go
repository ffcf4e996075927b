// Package server exposes a read-mostly HTTP view of a brewery database:
// tables, rows, ad-hoc statements, the sink log and snapshot backups.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/brewery/internal/backup"
	"github.com/koustreak/brewery/internal/errs"
	"github.com/koustreak/brewery/internal/filestore"
	"github.com/koustreak/brewery/internal/logger"
)

// Config holds the listener settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// MaxRows caps GET /tables/{name} pages. Zero means no cap.
	MaxRows int
}

// DefaultConfig returns the settings used for local inspection.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxRows:         1000,
	}
}

// Backups is the subset of backup.Service the server drives.
type Backups interface {
	Backup(ctx context.Context, src backup.Snapshotter) (*filestore.ObjectInfo, error)
	List(ctx context.Context) ([]filestore.ObjectInfo, error)
	Link(ctx context.Context, key string) (string, error)
}

// Server routes HTTP requests to one Session.
type Server struct {
	cfg     Config
	session *Session
	backups Backups
	log     *logger.Logger
	router  chi.Router
}

// Option customizes a Server.
type Option func(*Server)

// WithBackups mounts the /backups routes.
func WithBackups(b Backups) Option {
	return func(s *Server) { s.backups = b }
}

// WithLogger sets the access and error logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New builds the router.
func New(cfg *Config, session *Session, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg:     *cfg,
		session: session,
		log:     logger.Global(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Component("server")
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/tables", func(r chi.Router) {
		r.Get("/", s.handleListTables)
		r.Get("/{name}", s.handleTableRows)
		r.Get("/{name}/size", s.handleTableSize)
	})

	r.Post("/query", s.handleQuery)

	r.Get("/log", s.handleLog)
	r.Delete("/log", s.handleClearLog)

	if s.backups != nil {
		r.Route("/backups", func(r chi.Router) {
			r.Get("/", s.handleListBackups)
			r.Post("/", s.handleBackup)
			r.Get("/{key}/link", s.handleBackupLink)
		})
	}

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.With().Str("addr", s.cfg.Addr).Logger().Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errs.Wrap(errs.ErrKindConnectionFailed, "listen on "+s.cfg.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errs.Wrap(errs.ErrKindTimeout, "shutdown", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errs.Wrap(errs.ErrKindConnectionFailed, "serve", err)
	}
	s.log.Info("stopped")
	return nil
}
