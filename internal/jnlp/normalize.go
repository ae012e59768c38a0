package jnlp

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize rebuilds u into a canonical absolute base URL: scheme://host[:port]
// with every empty path segment collapsed and no trailing slash. It also
// returns a host_port token suitable for use as a cache-directory
// component, with ":" replaced by "_" so it's valid on every filesystem.
//
// Normalize is idempotent: Normalize(Normalize(u)) == Normalize(u).
func Normalize(u string) (normalized, hostPort string, err error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return "", "", fmt.Errorf("jnlp: parsing URL %q: %w", u, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", "", fmt.Errorf("jnlp: %q is not an absolute URL", u)
	}

	var sb strings.Builder
	sb.WriteString(parsed.Scheme)
	sb.WriteString("://")
	sb.WriteString(parsed.Host)

	for _, part := range strings.Split(parsed.Path, "/") {
		if part == "" {
			continue
		}
		sb.WriteByte('/')
		sb.WriteString(part)
	}

	hostPort = strings.ReplaceAll(parsed.Host, ":", "_")
	return sb.String(), hostPort, nil
}
