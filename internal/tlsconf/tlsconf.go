package tlsconf

import (
	"crypto/tls"
	_ "embed"
	"fmt"
	"log"
)

// The gateway ships one self-signed localhost identity; there is no
// certificate rotation.
var (
	//go:embed certs/cert.pem
	certPEM []byte

	//go:embed certs/key.pem
	keyPEM []byte
)

// ServerConfig loads the bundled identity and returns server-side TLS
// parameters with TLS 1.2 as the floor, reusable by both listeners.
func ServerConfig() (*tls.Config, error) {
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load bundled TLS identity: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// ServerConfigOrPlaintext returns the TLS parameters, or nil after logging
// when the bundled identity cannot be loaded, letting listeners fall back to
// plaintext. Acceptable only because this gateway binds to localhost.
func ServerConfigOrPlaintext() *tls.Config {
	cfg, err := ServerConfig()
	if err != nil {
		log.Printf("TLS bootstrap failed, falling back to plaintext: %v", err)
		return nil
	}
	return cfg
}
