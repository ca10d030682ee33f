// Package certs provisions a self-signed TLS certificate for serving the
// HTTP API locally.
package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// DefaultHosts are the names a generated certificate covers when none are
// given.
var DefaultHosts = []string{"localhost", "127.0.0.1", "::1"}

// DefaultValidity is how long a generated certificate is valid.
const DefaultValidity = 365 * 24 * time.Hour

// Provider supplies the server certificate.
type Provider interface {
	Certificate() (tls.Certificate, error)
}

// FileStore keeps a certificate and key as PEM files in a directory,
// generating a new pair when they are missing, unreadable, expired or do not
// cover every host.
type FileStore struct {
	now      func() time.Time
	dir      string
	certFile string
	keyFile  string
	hosts    []string
	validity time.Duration
}

// NewFileStore creates a store rooted at dir. With no hosts, DefaultHosts
// are used.
func NewFileStore(dir string, hosts ...string) *FileStore {
	if len(hosts) == 0 {
		hosts = DefaultHosts
	}
	return &FileStore{
		dir:      dir,
		certFile: filepath.Join(dir, "arcwise.crt"),
		keyFile:  filepath.Join(dir, "arcwise.key"),
		hosts:    hosts,
		validity: DefaultValidity,
		now:      time.Now,
	}
}

// Paths returns the certificate and key file locations.
func (s *FileStore) Paths() (certFile, keyFile string) {
	return s.certFile, s.keyFile
}

// Certificate returns the stored certificate, generating it if needed.
func (s *FileStore) Certificate() (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(s.certFile, s.keyFile)
	switch {
	case err == nil:
		if verr := s.verify(cert); verr == nil {
			return cert, nil
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		// Unreadable pair; replace it.
	}

	if err := s.remove(); err != nil {
		return tls.Certificate{}, err
	}
	return s.generate()
}

func (s *FileStore) generate() (tls.Certificate, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate directory: %w", err)
	}

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate private key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := s.now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"arcwise"},
			CommonName:   s.hosts[0],
		},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(s.validity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	for _, h := range s.hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate: %w", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to encode private key: %w", err)
	}

	if err := writePEM(s.certFile, "CERTIFICATE", der); err != nil {
		return tls.Certificate{}, err
	}
	if err := writePEM(s.keyFile, "EC PRIVATE KEY", keyDER); err != nil {
		return tls.Certificate{}, err
	}

	return tls.LoadX509KeyPair(s.certFile, s.keyFile)
}

func (s *FileStore) verify(cert tls.Certificate) error {
	if len(cert.Certificate) == 0 {
		return fmt.Errorf("no certificates found")
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}

	now := s.now()
	if now.Before(leaf.NotBefore) {
		return fmt.Errorf("certificate not yet valid")
	}
	if now.After(leaf.NotAfter) {
		return fmt.Errorf("certificate has expired")
	}

	for _, h := range s.hosts {
		if err := leaf.VerifyHostname(h); err != nil {
			return fmt.Errorf("certificate not valid for %s: %w", h, err)
		}
	}

	return nil
}

func (s *FileStore) remove() error {
	for _, f := range []string{s.certFile, s.keyFile} {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", f, err)
		}
	}
	return nil
}

func writePEM(path, blockType string, der []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open %s for writing: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// TLSConfig builds a server TLS configuration from p.
func TLSConfig(p Provider) (*tls.Config, error) {
	cert, err := p.Certificate()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
