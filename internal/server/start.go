package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// shutdownTimeout bounds the graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Start runs the HTTP server until an interrupt or terminate signal arrives.
func (s *Server) Start(addr string) error {
	ctx, stop := signalContext(context.Background())
	defer stop()
	return s.Run(ctx, addr)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.Bridge.Start(runCtx); err != nil {
		return err
	}
	go s.Registry.Run(runCtx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", addr, "provider", s.Provider.Name())
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.close()
			return err
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	err := s.E.Shutdown(shutdownCtx)
	s.close()
	return err
}

// close releases the connections, applications and bus, in that order.
func (s *Server) close() {
	if err := s.Bridge.Close(); err != nil {
		slog.Error("Failed to close websocket bridge", "error", err)
	}
	if err := s.Registry.Close(); err != nil {
		slog.Error("Failed to close application registry", "error", err)
	}
	if err := s.Bus.Close(); err != nil {
		slog.Error("Failed to close message bus", "error", err)
	}
}
