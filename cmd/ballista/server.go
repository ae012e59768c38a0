package main

import (
	"net/http"

	"github.com/kayyagari/ballista/internal/artifactcache"
	"github.com/kayyagari/ballista/internal/connection"
	"github.com/kayyagari/ballista/internal/jnlp"
	"github.com/kayyagari/ballista/internal/session"
	"github.com/kayyagari/ballista/internal/trust"
)

// server holds the process-wide singletons the command surface dispatches
// against: the connection store, the trust store, the artifact cache, and
// the session cache, matching spec.md §5's description of the core's
// shared mutable state.
type server struct {
	conf       Config
	conns      *connection.Store
	trust      *trust.Store
	sessions   *session.Cache
	jnlpClient *jnlp.Client
	cache      *artifactcache.Cache
}

func (s *server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /launch", s.handleLaunch)
	mux.HandleFunc("POST /connections", s.handleSave)
	mux.HandleFunc("GET /connections", s.handleLoadConnections)
	mux.HandleFunc("GET /connections/default", s.handleDefaultConnection)
	mux.HandleFunc("GET /connections/{id}", s.handleLoadSingleConnection)
	mux.HandleFunc("DELETE /connections/{id}", s.handleDelete)
	mux.HandleFunc("POST /import", s.handleImport)
	mux.HandleFunc("GET /groups", s.handleGetAllGroups)
	mux.HandleFunc("POST /trust_cert", s.handleTrustCert)
	mux.HandleFunc("GET /info", s.handleBallistaInfo)
}
