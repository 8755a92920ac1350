package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
)

// configureTLS sets up TLS configuration based on the mode
func (s *Server) configureTLS(httpServer *http.Server) error {
	switch s.TLSConfig.Mode {
	case "", "disabled":
		fmt.Printf("Starting server on http://%s\n", httpServer.Addr)
		fmt.Println("TLS mode: Disabled (HTTP only)")
		return nil
	case "server":
		fmt.Printf("Starting server with HTTPS (server-only TLS) on https://%s\n", httpServer.Addr)
		fmt.Println("TLS mode: Server-only (no client certificates required)")
	case "mutual":
		fmt.Printf("Starting server with mTLS (mutual TLS) on https://%s\n", httpServer.Addr)
		fmt.Println("TLS mode: Mutual (client certificates required)")
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	tlsConfig, err := s.buildTLSConfig()
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	httpServer.TLSConfig = tlsConfig
	return nil
}

// buildTLSConfig creates the TLS configuration
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	cert, err := s.loadServerCertificate()
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tlsVersion(s.TLSConfig.MinVersion),
	}
	s.configureCipherSuites(tlsConfig)

	if err := s.configureClientAuthentication(tlsConfig); err != nil {
		return nil, err
	}

	if s.TLSConfig.InsecureSkipVerify {
		tlsConfig.InsecureSkipVerify = true
		fmt.Println("WARNING: TLS certificate verification is disabled (insecureSkipVerify=true)")
	}

	return tlsConfig, nil
}

// loadServerCertificate prefers PEM content (from Vault) over files.
func (s *Server) loadServerCertificate() (tls.Certificate, error) {
	if s.TLSConfig.CertContent != "" && s.TLSConfig.KeyContent != "" {
		cert, err := tls.X509KeyPair([]byte(s.TLSConfig.CertContent), []byte(s.TLSConfig.KeyContent))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		return cert, nil
	}

	if s.TLSConfig.CertFile != "" && s.TLSConfig.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(s.TLSConfig.CertFile, s.TLSConfig.KeyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
		return cert, nil
	}

	return tls.Certificate{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
}

func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// configureCipherSuites configures the cipher suites if specified
func (s *Server) configureCipherSuites(tlsConfig *tls.Config) {
	if len(s.TLSConfig.CipherSuites) == 0 {
		return
	}

	cipherSuites := make([]uint16, 0, len(s.TLSConfig.CipherSuites))
	for _, suite := range s.TLSConfig.CipherSuites {
		if cipherID := getCipherSuiteID(suite); cipherID != 0 {
			cipherSuites = append(cipherSuites, cipherID)
		}
	}
	tlsConfig.CipherSuites = cipherSuites
}

// configureClientAuthentication sets up client authentication for mutual TLS
func (s *Server) configureClientAuthentication(tlsConfig *tls.Config) error {
	if s.TLSConfig.Mode != "mutual" {
		tlsConfig.ClientAuth = tls.NoClientCert
		return nil
	}

	caCert, err := s.loadCACertificate()
	if err != nil {
		return err
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(caCert); !ok {
		return fmt.Errorf("failed to append CA cert")
	}

	tlsConfig.ClientCAs = pool
	tlsConfig.ClientAuth = clientAuthPolicy(s.TLSConfig.ClientAuthPolicy)
	return nil
}

func (s *Server) loadCACertificate() ([]byte, error) {
	if s.TLSConfig.CAContent != "" {
		return []byte(s.TLSConfig.CAContent), nil
	}

	if s.TLSConfig.CAFile != "" {
		caCert, err := os.ReadFile(s.TLSConfig.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		return caCert, nil
	}

	return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
}

func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}

func getCipherSuiteID(name string) uint16 {
	for _, suite := range tls.CipherSuites() {
		if suite.Name == name {
			return suite.ID
		}
	}
	return 0
}
