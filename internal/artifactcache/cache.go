// Package artifactcache implements the content-addressed, per-host,
// per-version JAR cache described in spec.md §4.5: artifacts are laid out
// under <cacheDir>/<host_port>/<version>/<filename>, revalidated against
// the advertised SHA-256 before being reused, and concurrent requests for
// the same artifact are collapsed into a single download.
package artifactcache

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/package-url/packageurl-go"
	"github.com/quay/zlog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/kayyagari/ballista"
)

// Cache materializes jar resources into a directory tree, revalidating
// against advertised digests and deduplicating concurrent fetches of the
// same URL the way claircore's internal/cache/live.go deduplicates
// concurrent fetches of the same layer, adapted here to disk-backed
// downloads instead of weak in-memory pointers.
type Cache struct {
	root    string
	http    *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
}

// New returns a Cache rooted at root, downloading through client and
// rate-limited to rps requests per second. A single limiter is shared by
// all hosts, since a launch only ever talks to one MirthConnect server at
// a time.
func New(root string, client *http.Client, rps float64) *Cache {
	if client == nil {
		client = http.DefaultClient
	}
	lim := rate.NewLimiter(rate.Limit(rps), 1)
	return &Cache{root: root, http: client, limiter: lim}
}

// Dir returns (and creates) the directory artifacts for hostPort/version
// are materialized into.
func (c *Cache) Dir(hostPort, version string) (string, error) {
	dir := filepath.Join(c.root, hostPort, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("artifactcache: creating %s: %w", dir, err)
	}
	return dir, nil
}

// Reset removes a hostPort/version directory entirely, for the
// "don't use the cache" launch mode (spec.md §4.5).
func (c *Cache) Reset(hostPort, version string) error {
	dir := filepath.Join(c.root, hostPort, version)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("artifactcache: removing %s: %w", dir, err)
	}
	return nil
}

// Materialize ensures every resource is present and up to date under dir,
// downloading only those that are missing or whose advertised SHA-256
// doesn't match what's on disk. It returns the local file paths in the
// same order as resources.
func (c *Cache) Materialize(ctx context.Context, dir string, resources []ballista.Resource) ([]string, error) {
	paths := make([]string, len(resources))
	for i, r := range resources {
		if r.Kind != ballista.ResourceJar {
			continue
		}
		p, err := c.materializeOne(ctx, dir, r)
		if err != nil {
			return nil, err
		}
		paths[i] = p
	}
	return paths, nil
}

func (c *Cache) materializeOne(ctx context.Context, dir string, r ballista.Resource) (string, error) {
	name := path.Base(r.Href)
	dest := filepath.Join(dir, name)

	changed, err := hasFileChanged(dest, r.SHA256)
	if err != nil {
		return "", err
	}
	if !changed {
		zlog.Debug(ctx).Str("file", name).Msg("artifactcache: cache hit")
		return dest, nil
	}

	_, err, _ = c.group.Do(dest, func() (any, error) {
		return nil, c.download(ctx, r.Href, dest)
	})
	if err != nil {
		return "", err
	}
	return dest, nil
}

func (c *Cache) download(ctx context.Context, url, dest string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("artifactcache: building request for %s: %w", url, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("artifactcache: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("artifactcache: fetching %s: status %d", url, resp.StatusCode)
	}

	// Written directly to dest, not via a tempfile+rename: spec.md §4.5
	// treats the cache as a best-effort mirror, not durable storage, so a
	// download killed mid-write simply leaves a truncated file to be
	// revalidated (and re-fetched) on the next launch.
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("artifactcache: creating %s: %w", dest, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("artifactcache: writing %s: %w", dest, err)
	}
	return f.Close()
}

// hasFileChanged reports whether dest is missing, or present but its
// SHA-256 doesn't match hashInJNLP. A resource with no advertised digest
// is always treated as changed, matching the reference implementation's
// "always redownload when the JNLP didn't advertise a hash" behavior.
func hasFileChanged(dest, hashInJNLP string) (bool, error) {
	if hashInJNLP == "" {
		return true, nil
	}
	f, err := os.Open(dest)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("artifactcache: opening %s: %w", dest, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, fmt.Errorf("artifactcache: hashing %s: %w", dest, err)
	}
	sum := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return sum != hashInJNLP, nil
}

// PackageURL builds a purl identifying a cached jar artifact, for the
// sidecar identity index callers may want to attach to launch telemetry
// (spec.md's DOMAIN STACK extension for package-url/packageurl-go).
func PackageURL(hostPort, version, fileName string) string {
	p := packageurl.NewPackageURL("generic", hostPort, fileName, version, nil, "")
	return p.ToString()
}
