package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/polisai/polis-whois/pkg/config"
)

// Server runs the handler until its context is cancelled.
type Server struct {
	cfg    config.ServerConfig
	http   *http.Server
	logger zerolog.Logger
}

// New wraps handler in an http.Server configured from cfg.
func New(cfg config.ServerConfig, handler http.Handler, logger zerolog.Logger) *Server {
	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	if cfg.TLS != nil && cfg.TLS.Enabled {
		srv.TLSConfig = cfg.TLS.ServerTLS()
	}
	return &Server{cfg: cfg, http: srv, logger: logger}
}

// ListenAndRun binds the configured address and calls Run.
func (s *Server) ListenAndRun(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to bind listener %s: %w", s.cfg.Address, err)
	}
	return s.Run(ctx, ln)
}

// Run serves on ln and shuts down gracefully when ctx is done.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	s.logger.Info().Str("addr", ln.Addr().String()).Bool("tls", s.http.TLSConfig != nil).Msg("server listening")

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.http.TLSConfig != nil {
			err = s.http.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.http.Serve(ln)
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Msg("shutting down server")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
