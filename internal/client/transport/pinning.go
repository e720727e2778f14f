package transport

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
)

var ErrPinMismatch = errors.New("certificate pin mismatch")

// SPKIPin is the base64 SHA-256 of a certificate's SubjectPublicKeyInfo, the
// format used by HPKP and most mobile pinning configs.
func SPKIPin(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// pinnedTLSConfig keeps normal chain verification and additionally requires
// one certificate of the verified chain to match a pin.
func pinnedTLSConfig(pins []string) (*tls.Config, error) {
	if len(pins) == 0 {
		return nil, errors.New("certificate pinning enabled without pins")
	}

	allowed := make(map[string]struct{}, len(pins))
	for _, p := range pins {
		allowed[p] = struct{}{}
	}

	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		VerifyConnection: func(cs tls.ConnectionState) error {
			chains := cs.VerifiedChains
			if len(chains) == 0 {
				chains = [][]*x509.Certificate{cs.PeerCertificates}
			}
			for _, chain := range chains {
				for _, cert := range chain {
					if _, ok := allowed[SPKIPin(cert)]; ok {
						return nil
					}
				}
			}
			return fmt.Errorf("%w for %s", ErrPinMismatch, cs.ServerName)
		},
	}, nil
}
