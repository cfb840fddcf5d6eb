// Package server runs the development server: it serves the built
// output directory over HTTP and rebuilds the site when source files
// change.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Server serves a built site and rebuilds it on change.
type Server struct {
	Addr      string
	OutputDir string

	// Rebuild regenerates the output directory. It is called once
	// before serving and again after every debounced change burst.
	Rebuild func(ctx context.Context) error

	// WatchDirs are watched recursively for changes.
	WatchDirs []string
}

// Run builds the site, starts the watcher, and serves until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Rebuild(ctx); err != nil {
		return err
	}

	w, err := newWatcher(s.WatchDirs)
	if err != nil {
		return err
	}
	defer w.Close()
	go w.run(ctx, func() {
		if err := s.Rebuild(ctx); err != nil {
			slog.Error("rebuild failed", "err", err)
		}
	})

	srv := &http.Server{
		Addr:    s.Addr,
		Handler: http.FileServer(http.Dir(s.OutputDir)),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("serving site", "addr", s.Addr, "dir", s.OutputDir)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
