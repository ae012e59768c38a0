package manifestfile

import (
	"github.com/kayyagari/ballista"
)

// Digest parses a NameDigest's recorded algorithm/value pair into a
// ballista.Digest, for comparison against a computed digest.
func (nd NameDigest) Digest() (ballista.Digest, error) {
	return ballista.ParseDigest(nd.Algorithm, nd.Value)
}

// ManifestDigest parses the manifest-level digest recorded under the
// "<ALG>-Digest-Manifest" main attribute, if any.
func (m *Manifest) ManifestDigest() (ballista.Digest, bool, error) {
	if m.DigestAlgName == "" {
		return ballista.Digest{}, false, nil
	}
	v, ok := m.MainAttribs[m.DigestAlgName+digestManifestKeySuffix]
	if !ok {
		return ballista.Digest{}, false, nil
	}
	d, err := ballista.ParseDigest(m.DigestAlgName, v)
	if err != nil {
		return ballista.Digest{}, true, mkErr("parsing manifest digest", err)
	}
	return d, true, nil
}
