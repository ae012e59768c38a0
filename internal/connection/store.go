// Package connection implements the persisted connection store described
// in spec.md §3/§6: saved server connections, keyed by id, backed by a
// single JSON file, with JAVA_HOME probing for newly created entries.
package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/quay/zlog"

	"github.com/kayyagari/ballista"
)

// Store is a JSON-file-backed map of connection id to ballista.Connection,
// guarded by a mutex in the shape of con.rs's ConnectionStore.
type Store struct {
	path string

	mu      sync.Mutex
	entries map[string]ballista.Connection
}

// Open loads the store at path, creating an empty one if it doesn't exist.
func Open(ctx context.Context, path string) (*Store, error) {
	s := &Store{path: path, entries: make(map[string]ballista.Connection)}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("connection: reading %s: %w", path, err)
	}

	if err := json.Unmarshal(raw, &s.entries); err != nil {
		zlog.Warn(ctx).Err(err).Str("path", path).Msg("connection: ignoring unreadable store")
		s.entries = make(map[string]ballista.Connection)
	}
	return s, nil
}

// Default returns a new Connection with the same defaults con.rs seeds a
// fresh entry with: a random id, a 512m heap, JAVA_HOME probed from the
// environment, and signature verification turned on.
func Default() ballista.Connection {
	return ballista.Connection{
		ID:       uuid.New().String(),
		HeapSize: "512m",
		JavaHome: FindJavaHome(),
		Verify:   true,
	}
}

// Get returns the connection stored under id.
func (s *Store) Get(id string) (ballista.Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.entries[id]
	return c, ok
}

// All returns every stored connection in no particular order.
func (s *Store) All() []ballista.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ballista.Connection, 0, len(s.entries))
	for _, c := range s.entries {
		out = append(out, c)
	}
	return out
}

// Save inserts or updates c, assigning a fresh id and probing JAVA_HOME
// when either is unset, and clearing blank username/password fields.
// It returns the (possibly id-assigned) connection as saved.
func (s *Store) Save(c ballista.Connection) (ballista.Connection, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if strings.TrimSpace(c.JavaHome) == "" {
		c.JavaHome = FindJavaHome()
	}
	if strings.TrimSpace(c.Username) == "" {
		c.Username = ""
	}
	if strings.TrimSpace(c.Password) == "" {
		c.Password = ""
	}

	s.mu.Lock()
	s.entries[c.ID] = c
	s.mu.Unlock()

	if err := s.flush(); err != nil {
		return ballista.Connection{}, err
	}
	return c, nil
}

// Delete removes the connection stored under id, if any.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return s.flush()
}

// Import bulk-loads connections from a JSON array at filePath, overwriting
// JavaHome on every imported entry with the current environment's probed
// value (matching con.rs's import, which always re-probes rather than
// trusting the exported JavaHome from a different machine).
func (s *Store) Import(filePath string) (int, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("connection: reading %s: %w", filePath, err)
	}
	var imported []ballista.Connection
	if err := json.Unmarshal(raw, &imported); err != nil {
		return 0, fmt.Errorf("connection: decoding %s: %w", filePath, err)
	}

	javaHome := FindJavaHome()
	s.mu.Lock()
	for _, c := range imported {
		c.JavaHome = javaHome
		s.entries[c.ID] = c
	}
	s.mu.Unlock()

	if err := s.flush(); err != nil {
		return 0, err
	}
	return len(imported), nil
}

func (s *Store) flush() error {
	s.mu.Lock()
	buf, err := json.Marshal(s.entries)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("connection: encoding store: %w", err)
	}
	if err := os.WriteFile(s.path, buf, 0o600); err != nil {
		return fmt.Errorf("connection: writing %s: %w", s.path, err)
	}
	return nil
}

// FindJavaHome probes JAVA_HOME from the environment, falling back to
// /usr/libexec/java_home -v 1.8 on platforms that carry it (macOS).
func FindJavaHome() string {
	if jh := strings.TrimSpace(os.Getenv("JAVA_HOME")); jh != "" {
		return jh
	}

	out, err := exec.Command("/usr/libexec/java_home", "-v", "1.8").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
