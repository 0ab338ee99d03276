package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// LoadTLSBundle parses a PKCS#12 bundle (the format TAK servers typically
// hand out as a single client-auth file) once at startup into an in-memory
// *tls.Config, keyed by the bundle's own certificate and any CAs it
// carries.
//
// This replaces original_source/tak_client.py's approach of writing the
// bundle's contents out to temporary PEM files on disk for the stdlib SSL
// context to read back in — Go's crypto/tls accepts parsed certificates
// directly, so there is no need to touch the filesystem a second time.
func LoadTLSBundle(path, password string, skipVerify bool) (*tls.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tls bundle %s: %w", path, err)
	}

	key, cert, caCerts, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, fmt.Errorf("decode tls bundle %s: %w", path, err)
	}

	pool := x509.NewCertPool()
	for _, ca := range caCerts {
		pool.AddCert(ca)
	}

	tlsCert := tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  key,
		Leaf:        cert,
	}
	for _, ca := range caCerts {
		tlsCert.Certificate = append(tlsCert.Certificate, ca.Raw)
	}

	return &tls.Config{
		Certificates:       []tls.Certificate{tlsCert},
		RootCAs:            pool,
		InsecureSkipVerify: skipVerify,
		MinVersion:         tls.VersionTLS12,
	}, nil
}
