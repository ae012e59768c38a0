package ballista

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
)

// Digest algorithm names as they appear in a MANIFEST.MF "<ALG>-Digest" key,
// normalized to the JAR-manifest spelling.
const (
	SHA256 = "SHA-256"
	SHA384 = "SHA-384"
	SHA512 = "SHA-512"
)

// Digest is a base64-encoded message digest, tagged with the algorithm that
// produced it.
//
// It's used throughout this module to remain independent of a specific
// hashing algorithm, the way claircore's own Digest type does for hex/sha
// digests; JAR and JNLP digests are base64, so this variant encodes that way
// instead.
type Digest struct {
	algo string
	sum  []byte
	repr string
}

// Algorithm returns the digest's algorithm name, one of SHA256, SHA384, or
// SHA512.
func (d Digest) Algorithm() string { return d.algo }

// Sum returns the raw digest bytes.
func (d Digest) Sum() []byte { return d.sum }

// String returns the base64 representation, as it would appear in a
// manifest "<ALG>-Digest" value.
func (d Digest) String() string { return d.repr }

// Hash returns a fresh instance of the hash algorithm backing this Digest.
func (d Digest) Hash() hash.Hash {
	h, ok := NewHash(d.algo)
	if !ok {
		panic("ballista: Hash called on a Digest with an invalid algorithm")
	}
	return h
}

// NewHash returns a fresh hash.Hash for the named algorithm, and reports
// whether the algorithm was recognized.
func NewHash(algo string) (hash.Hash, bool) {
	switch algo {
	case SHA256:
		return sha256.New(), true
	case SHA384:
		return sha512.New384(), true
	case SHA512:
		return sha512.New(), true
	default:
		return nil, false
	}
}

// NewDigest constructs a Digest from raw bytes and an algorithm name.
func NewDigest(algo string, sum []byte) (Digest, error) {
	if _, ok := NewHash(algo); !ok {
		return Digest{}, fmt.Errorf("ballista: unsupported digest algorithm %q", algo)
	}
	return Digest{
		algo: algo,
		sum:  append([]byte(nil), sum...),
		repr: base64.StdEncoding.EncodeToString(sum),
	}, nil
}

// ParseDigest builds a Digest from an algorithm name and its base64 textual
// representation, as found in a manifest value.
func ParseDigest(algo, b64 string) (Digest, error) {
	sum, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Digest{}, fmt.Errorf("ballista: malformed base64 digest: %w", err)
	}
	d, err := NewDigest(algo, sum)
	if err != nil {
		return Digest{}, err
	}
	return d, nil
}

// Equal reports whether two Digests have the same algorithm and value.
func (d Digest) Equal(o Digest) bool {
	return d.algo == o.algo && bytes.Equal(d.sum, o.sum)
}

// DigestData computes the Digest of data, using algo.
func DigestData(algo string, data []byte) (Digest, error) {
	h, ok := NewHash(algo)
	if !ok {
		return Digest{}, fmt.Errorf("ballista: unsupported digest algorithm %q", algo)
	}
	h.Write(data)
	return NewDigest(algo, h.Sum(nil))
}
