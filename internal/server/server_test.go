package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/arcwise/internal/certs"
)

func serveInBackground(t *testing.T, opts Options) (addr string, cancel context.CancelFunc, done <-chan error) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- Serve(ctx, ln, NewRouter(failingRunner{}, nil, nil), opts)
	}()

	return ln.Addr().String(), cancel, errCh
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	addr, cancel, done := serveInBackground(t, Options{ShutdownTimeout: time.Second})

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", addr))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_TLS(t *testing.T) {
	store := certs.NewFileStore(t.TempDir())
	cfg, err := certs.TLSConfig(store)
	require.NoError(t, err)

	addr, cancel, done := serveInBackground(t, Options{TLS: cfg, ShutdownTimeout: time.Second})
	defer func() {
		cancel()
		<-done
	}()

	leaf, err := x509.ParseCertificate(cfg.Certificates[0].Certificate[0])
	require.NoError(t, err)
	pool := x509.NewCertPool()
	pool.AddCert(leaf)

	client := &http.Client{
		Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}},
		Timeout:   5 * time.Second,
	}
	resp, err := client.Get(fmt.Sprintf("https://%s/healthz", addr))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListenAndServe_BadAddr(t *testing.T) {
	err := ListenAndServe(context.Background(), http.NotFoundHandler(), Options{Addr: "not-an-addr"})
	assert.Error(t, err)
}
