// Package server exposes the explorer over a read-only HTTP JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/app"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/config"
)

// Server serves one loaded app context. Every handler only reads.
type Server struct {
	app     *app.Context
	version string
	origins map[string]struct{}
	server  *http.Server
}

// New builds a server for cfg. origins lists the browser origins allowed
// by CORS; none are allowed when empty.
func New(a *app.Context, cfg config.ServerConfig, version string, origins []string) *Server {
	s := &Server{
		app:     a,
		version: version,
		origins: make(map[string]struct{}, len(origins)),
	}
	for _, o := range origins {
		s.origins[o] = struct{}{}
	}
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler with middleware.
func (s *Server) Handler() http.Handler {
	return s.registerRoutes()
}

// Addr is the listen address.
func (s *Server) Addr() string { return s.server.Addr }

// Start serves in a goroutine; listen errors go to errChan.
func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("api server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
