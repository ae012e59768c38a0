// Package trust implements the certificate trust store consulted during
// JAR signature verification: the platform trust roots, plus any
// certificates the user has chosen to pin after a trust-on-first-use
// prompt (spec.md §4.3).
package trust

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"sync"

	"github.com/quay/zlog"
)

// Store holds an immutable snapshot of trusted certificates behind a
// mutex-guarded writer, in the shape of claircore's internal/cache/live.go:
// readers take the current snapshot pointer without holding the lock
// across any work, and a write swaps in a wholly new snapshot.
//
// On disk the store persists exactly the wire format spec.md §6 fixes: a
// JSON object mapping a fingerprint string to the pinned certificate's
// base64 DER, rather than a bare array — so the fingerprint doubles as a
// deduplication key across repeated trust_cert calls for the same cert.
type Store struct {
	path string

	mu     sync.Mutex
	pool   *x509.CertPool
	pinned map[string]string // fingerprint -> base64 DER
}

// Open loads (or creates) a pinned-certificate store backed by path, with
// the platform default trust roots seeded in as a starting point.
func Open(ctx context.Context, path string) (*Store, error) {
	base, err := x509.SystemCertPool()
	if err != nil || base == nil {
		zlog.Warn(ctx).Err(err).Msg("trust: no system cert pool available, starting empty")
		base = x509.NewCertPool()
	}

	s := &Store{path: path, pool: base, pinned: make(map[string]string)}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("trust: reading %s: %w", path, err)
	}

	var pinned map[string]string
	if err := json.Unmarshal(raw, &pinned); err != nil {
		return nil, fmt.Errorf("trust: decoding %s: %w", path, err)
	}
	for fingerprint, derBase64 := range pinned {
		cert, err := decodeBase64DER(derBase64)
		if err != nil {
			zlog.Warn(ctx).Err(err).Str("fingerprint", fingerprint).Msg("trust: skipping malformed pinned certificate")
			continue
		}
		s.pool.AddCert(cert)
		s.pinned[fingerprint] = derBase64
	}
	return s, nil
}

// Pool returns the current snapshot of trusted roots. The returned pool
// must be treated as read-only; a subsequent Add produces a new one rather
// than mutating this one in place.
func (s *Store) Pool() *x509.CertPool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool
}

// Add decodes derBase64, parses it as an X.509 certificate, and pins it as
// trusted, per spec.md §4.3: the map key is the SHA-256 hex digest of the
// base64 input itself (not of the decoded DER), acting as a
// deduplication fingerprint across repeated calls with the same cert. A
// certificate already pinned is a no-op that still returns the parsed
// certificate.
func (s *Store) Add(ctx context.Context, derBase64 string) (*x509.Certificate, error) {
	cert, err := decodeBase64DER(derBase64)
	if err != nil {
		return nil, err
	}
	fingerprint := fingerprintOf(derBase64)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pinned[fingerprint]; exists {
		return cert, nil
	}

	next := make(map[string]string, len(s.pinned)+1)
	for k, v := range s.pinned {
		next[k] = v
	}
	next[fingerprint] = derBase64

	if err := persist(s.path, next); err != nil {
		return nil, fmt.Errorf("trust: persisting %s: %w", s.path, err)
	}

	pool := s.pool.Clone()
	pool.AddCert(cert)
	s.pool = pool
	s.pinned = next
	zlog.Info(ctx).Str("subject", cert.Subject.String()).Msg("trust: pinned certificate")
	return cert, nil
}

// Pinned returns the certificates pinned via Add, independent of the
// platform defaults seeded at Open.
func (s *Store) Pinned() []*x509.Certificate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*x509.Certificate, 0, len(s.pinned))
	for _, derBase64 := range s.pinned {
		if cert, err := decodeBase64DER(derBase64); err == nil {
			out = append(out, cert)
		}
	}
	return out
}

func fingerprintOf(derBase64 string) string {
	sum := sha256.Sum256([]byte(derBase64))
	return hex.EncodeToString(sum[:])
}

func decodeBase64DER(derBase64 string) (*x509.Certificate, error) {
	der, err := base64.StdEncoding.DecodeString(derBase64)
	if err != nil {
		return nil, fmt.Errorf("trust: decoding base64 DER: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("trust: parsing certificate: %w", err)
	}
	return cert, nil
}

func persist(path string, pinned map[string]string) error {
	buf, err := json.Marshal(pinned)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o600)
}

// DecodePEM parses a single PEM-encoded certificate, as offered by a
// trust-on-first-use prompt where the user supplied a cert file rather
// than accepting the one extracted from a signature block.
func DecodePEM(raw []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("trust: no PEM block found")
	}
	return x509.ParseCertificate(block.Bytes)
}
