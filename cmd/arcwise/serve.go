package main

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/arcwise/internal/certs"
	"github.com/Veraticus/arcwise/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		Long: `Start the HTTP API. POST /api/v1/runs routes a request through the
agents; GET /api/v1/runs and GET /api/v1/runs/{id} read the run journal.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default: server.addr)")
	cmd.Flags().Bool("tls", false, "Serve HTTPS with a self-signed certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, viper.GetViper())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
	}()

	var store server.RunStore
	if a.store != nil {
		store = a.store
	}

	handler := server.NewRouter(a.pipeline, store, slog.Default())

	var tlsConfig *tls.Config
	if a.cfg.Server.TLS {
		certStore := certs.NewFileStore(a.cfg.Server.CertDir)
		tlsConfig, err = certs.TLSConfig(certStore)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificate: %w", err)
		}
		certFile, _ := certStore.Paths()
		slog.Info("Serving HTTPS with self-signed certificate", "certificate", certFile)
	}

	return server.ListenAndServe(ctx, handler, server.Options{
		TLS:             tlsConfig,
		Addr:            a.cfg.Server.Addr,
		ReadTimeout:     a.cfg.Server.ReadTimeout,
		WriteTimeout:    a.cfg.Server.WriteTimeout,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
	})
}
