package artifactcache

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/kayyagari/ballista"
)

func TestMaterializeDownloadsAndCaches(t *testing.T) {
	const content = "jar bytes go here"
	sum := sha256.Sum256([]byte(content))
	digest := base64.StdEncoding.EncodeToString(sum[:])

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(content))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := New(dir, srv.Client(), 1000)

	resources := []ballista.Resource{
		{Kind: ballista.ResourceJar, Href: srv.URL + "/app.jar", SHA256: digest},
	}

	paths, err := c.Materialize(context.Background(), dir, resources)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("paths = %v, want 1 entry", paths)
	}
	got, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Errorf("downloaded content = %q, want %q", got, content)
	}
	if hits != 1 {
		t.Fatalf("server hits = %d, want 1", hits)
	}

	// A second Materialize with the same digest should be a cache hit: no
	// additional request.
	if _, err := c.Materialize(context.Background(), dir, resources); err != nil {
		t.Fatalf("second Materialize: %v", err)
	}
	if hits != 1 {
		t.Fatalf("server hits after cache hit = %d, want 1", hits)
	}
}

func TestMaterializeRedownloadsOnDigestMismatch(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("current content"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := New(dir, srv.Client(), 1000)

	stale := filepath.Join(dir, "app.jar")
	if err := os.WriteFile(stale, []byte("stale content"), 0o644); err != nil {
		t.Fatal(err)
	}

	sum := sha256.Sum256([]byte("current content"))
	digest := base64.StdEncoding.EncodeToString(sum[:])
	resources := []ballista.Resource{
		{Kind: ballista.ResourceJar, Href: srv.URL + "/app.jar", SHA256: digest},
	}
	if _, err := c.Materialize(context.Background(), dir, resources); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if hits != 1 {
		t.Fatalf("server hits = %d, want 1 (stale file should be redownloaded)", hits)
	}
	got, _ := os.ReadFile(stale)
	if string(got) != "current content" {
		t.Errorf("content after redownload = %q", got)
	}
}

func TestPackageURL(t *testing.T) {
	got := PackageURL("mirth.example.com_8443", "3.11.0", "mirth-client.jar")
	const want = "pkg:generic/mirth.example.com_8443/mirth-client.jar@3.11.0"
	if got != want {
		t.Errorf("PackageURL = %q, want %q", got, want)
	}
}
