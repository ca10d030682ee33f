package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Options configures the HTTP server. A non-nil TLS serves HTTPS.
type Options struct {
	TLS             *tls.Config
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ListenAndServe listens on opts.Addr and serves handler until ctx is
// canceled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, handler http.Handler, opts Options) error {
	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return Serve(ctx, ln, handler, opts)
}

// Serve is ListenAndServe on an existing listener. It closes ln.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, opts Options) error {
	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
		TLSConfig:         opts.TLS,
	}

	scheme := "http"
	if opts.TLS != nil {
		scheme = "https"
		ln = tls.NewListener(ln, opts.TLS)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", ln.Addr().String(), "scheme", scheme)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	slog.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
