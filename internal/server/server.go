// Package server exposes form definitions over HTTP: edit forms, print
// previews and submissions. Every request builds a fresh document, so
// handlers share only the read-mostly definition store and renderer
// registry.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdoc/pkg/definition"
	"github.com/goliatone/go-formdoc/pkg/render"
	"github.com/goliatone/go-formdoc/pkg/renderers/html"
	"github.com/goliatone/go-formdoc/pkg/submit"
)

// Option customises the server.
type Option func(*Server)

// WithLogger sets the request and handler logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRenderers replaces the renderer registry. The first registered
// renderer is used when a request names no format.
func WithRenderers(registry *render.Registry) Option {
	return func(s *Server) {
		if registry != nil {
			s.renderers = registry
		}
	}
}

// WithPlaceholder sets the print-mode text for empty values.
func WithPlaceholder(placeholder string) Option {
	return func(s *Server) {
		s.placeholder = placeholder
	}
}

// WithColumnCascade purges row values when a dynamic column is removed.
func WithColumnCascade(enabled bool) Option {
	return func(s *Server) {
		s.cascade = enabled
	}
}

// Server holds the HTTP handlers.
type Server struct {
	store       *definition.Store
	submitter   *submit.Submitter
	renderers   *render.Registry
	logger      *zap.Logger
	placeholder string
	cascade     bool
	engine      *gin.Engine
}

// New wires the handlers. The default registry holds the HTML renderer with
// its embedded stylesheet.
func New(store *definition.Store, submitter *submit.Submitter, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, errors.New("server: definition store is required")
	}
	if submitter == nil {
		return nil, errors.New("server: submitter is required")
	}
	s := &Server{store: store, submitter: submitter, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.renderers == nil {
		renderer, err := html.New(html.WithDefaultStyles())
		if err != nil {
			return nil, fmt.Errorf("server: html renderer: %w", err)
		}
		s.renderers = render.NewRegistry(renderer)
	}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), Logger(s.logger))

	engine.GET("/healthz", s.health)
	forms := engine.Group("/forms")
	forms.GET("", s.listForms)
	forms.GET("/:id", s.showForm)
	forms.POST("/:id/preview", s.previewForm)
	forms.POST("/:id/submit", s.submitForm)
	return engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
