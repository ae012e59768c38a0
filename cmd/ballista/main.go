// Command ballista is the thin host-process entrypoint for the launcher
// core: it wires the trust store, connection store, artifact cache, and
// session cache together behind the minimal JSON command surface spec.md
// §6 describes, in the shape of claircore's cmd/libindexhttp/main.go
// (goconfig for config, zerolog+zlog for logging, a bare net/http.Server).
//
// This is not the desktop UI spec.md §1 excludes from the core's scope;
// it exists only so the core can be exercised end to end.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/crgimenes/goconfig"
	"github.com/quay/zlog"
	"github.com/rs/zerolog"

	"github.com/kayyagari/ballista/internal/artifactcache"
	"github.com/kayyagari/ballista/internal/connection"
	"github.com/kayyagari/ballista/internal/jnlp"
	"github.com/kayyagari/ballista/internal/session"
	"github.com/kayyagari/ballista/internal/trust"
)

// Config is parsed from flags/env by goconfig, the same struct-tag
// scheme cmd/libindexhttp/main.go uses for its own settings.
type Config struct {
	HTTPListenAddr    string  `cfgDefault:"127.0.0.1:8765" cfg:"HTTP_LISTEN_ADDR"`
	CacheRoot         string  `cfgDefault:"" cfg:"CACHE_ROOT" cfgHelper:"Artifact cache root; defaults to $XDG_CACHE_HOME/ballista"`
	ConnectionStore   string  `cfgDefault:"" cfg:"CONNECTION_STORE" cfgHelper:"Path to the connections.json file; defaults to $HOME/.ballista/connections.json"`
	TrustStore        string  `cfgDefault:"" cfg:"TRUST_STORE" cfgHelper:"Path to the trust.json file; defaults to $HOME/.ballista/trust.json"`
	InsecureJNLPFetch bool   `cfgDefault:"true" cfg:"INSECURE_JNLP_FETCH" cfgHelper:"Skip TLS verification when fetching the JNLP descriptor (spec.md §9); JAR signatures are the real trust boundary"`
	DownloadRPS       int    `cfgDefault:"8" cfg:"DOWNLOAD_RPS" cfgHelper:"Artifact download rate limit, requests per second (one limit shared by all hosts)"`
	LogLevel          string `cfgDefault:"info" cfg:"LOG_LEVEL" cfgHelper:"Log levels: debug, info, warning, error, fatal, panic"`
}

func main() {
	ctx := context.Background()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, NoColor: true}).
		With().Timestamp().Caller().
		Logger()

	conf := Config{}
	if err := goconfig.Parse(&conf); err != nil {
		log.Fatal().Msgf("failed to parse config: %v", err)
	}
	log = log.Level(logLevel(conf))
	zlog.Set(&log)

	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatal().Msgf("resolving home directory: %v", err)
	}

	if conf.CacheRoot == "" {
		conf.CacheRoot = filepath.Join(cacheHome(home), "ballista")
	}
	if conf.ConnectionStore == "" {
		conf.ConnectionStore = filepath.Join(home, ".ballista", "connections.json")
	}
	if conf.TrustStore == "" {
		conf.TrustStore = filepath.Join(home, ".ballista", "trust.json")
	}
	for _, dir := range []string{conf.CacheRoot, filepath.Dir(conf.ConnectionStore), filepath.Dir(conf.TrustStore)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Msgf("creating %s: %v", dir, err)
		}
	}

	connStore, err := connection.Open(ctx, conf.ConnectionStore)
	if err != nil {
		log.Fatal().Msgf("opening connection store: %v", err)
	}
	trustStore, err := trust.Open(ctx, conf.TrustStore)
	if err != nil {
		log.Fatal().Msgf("opening trust store: %v", err)
	}

	httpClient := jnlp.NewClient(conf.InsecureJNLPFetch)
	srv := &server{
		conf:       conf,
		conns:      connStore,
		trust:      trustStore,
		sessions:   session.New(),
		jnlpClient: httpClient,
		cache:      artifactcache.New(conf.CacheRoot, httpClient.HTTP, float64(conf.DownloadRPS)),
	}

	mux := http.NewServeMux()
	srv.routes(mux)

	httpSrv := &http.Server{
		Addr:        conf.HTTPListenAddr,
		Handler:     mux,
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	zlog.Info(ctx).Str("addr", conf.HTTPListenAddr).Msg("ballista: starting command surface")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Msgf("http server: %v", err)
	}
}

func logLevel(conf Config) zerolog.Level {
	if l, err := zerolog.ParseLevel(strings.ToLower(conf.LogLevel)); err == nil {
		return l
	}
	return zerolog.InfoLevel
}

// cacheHome mirrors os.UserCacheDir's unix fallback without requiring a
// populated environment in minimal container images.
func cacheHome(home string) string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CACHE_HOME")); xdg != "" {
		return xdg
	}
	return filepath.Join(home, ".cache")
}
