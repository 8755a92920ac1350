package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 30 * time.Second

// Start serves the API until ctx is cancelled or the process receives SIGINT
// or SIGTERM, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	httpServer := s.setupHTTPServer()

	if err := s.configureTLS(httpServer); err != nil {
		return err
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(ctx, httpServer)
}

func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(s.Host, s.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// Certificates are already loaded into TLSConfig.
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.cleanupRateLimiter()
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())
	case <-ctx.Done():
		s.Logger.Info("Context cancelled, starting graceful shutdown")
	}

	return s.performGracefulShutdown(server)
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.cleanupRateLimiter()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Debug("Rate limiter cleaned up")
	}
}
