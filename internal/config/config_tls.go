package config

import "fmt"

// ValidateTLSConfig checks the server TLS settings for the configured mode
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS
	if err := validateTLSMode(tls); err != nil {
		return err
	}
	return validateTLSVersion(tls)
}

func validateTLSMode(tls TLSConfig) error {
	switch tls.Mode {
	case "disabled":
		return nil
	case "server":
		return validateCertificateSources(tls, "server mode")
	case "mutual":
		if err := validateCertificateSources(tls, "mutual mode"); err != nil {
			return err
		}
		if err := validateCASource(tls); err != nil {
			return err
		}
		return validateClientAuthPolicy(tls)
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}
}

// validateCertificateSources requires a certificate and key, each from exactly one source.
func validateCertificateSources(tls TLSConfig, mode string) error {
	if (tls.CertFile == "" && tls.CertContent == "") || (tls.KeyFile == "" && tls.KeyContent == "") {
		return fmt.Errorf("TLS certificate and key are required for %s (provide either files or content)", mode)
	}
	if err := exclusiveSource("certFile", tls.CertFile, "certContent", tls.CertContent); err != nil {
		return err
	}
	return exclusiveSource("keyFile", tls.KeyFile, "keyContent", tls.KeyContent)
}

func validateCASource(tls TLSConfig) error {
	if tls.CAFile == "" && tls.CAContent == "" {
		return fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}
	return exclusiveSource("caFile", tls.CAFile, "caContent", tls.CAContent)
}

func exclusiveSource(fileKey, file, contentKey, content string) error {
	if file != "" && content != "" {
		return fmt.Errorf("cannot specify both %s and %s - choose one", fileKey, contentKey)
	}
	return nil
}

func validateClientAuthPolicy(tls TLSConfig) error {
	switch tls.ClientAuthPolicy {
	case "require", "request", "verify", "":
		return nil
	default:
		return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
	}
}

func validateTLSVersion(tls TLSConfig) error {
	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}
