// Package launch implements the launch orchestrator (spec.md §4.4-§4.6):
// resolve a server's JNLP descriptor, materialize its jar resources into
// the artifact cache, verify their signatures, and build the final JVM
// invocation plan.
//
// It's structured as a finite-state machine in the shape of claircore's
// indexer controller: a State enum, a map[State]stateFunc dispatch table,
// and a run loop that walks states until it reaches Terminal or Error.
package launch

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/quay/zlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/kayyagari/ballista"
	"github.com/kayyagari/ballista/internal/baggageutil"
	"github.com/kayyagari/ballista/internal/jnlp"
)

// tracer emits the one span per launch attempt that wraps the FSM run, in
// the shape of libindex's package-level tracer.
var tracer = otel.Tracer("github.com/kayyagari/ballista/internal/launch")

type stateFunc func(context.Context, *Controller) (State, error)

var stateToStateFunc = map[State]stateFunc{
	ResolveJNLP:          resolveJNLP,
	MaterializeArtifacts: materializeArtifacts,
	VerifyArtifacts:      verifyArtifacts,
	BuildPlan:            buildPlan,
}

var launchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ballista",
	Name:      "launches_total",
	Help:      "Total launch attempts by terminal state.",
}, []string{"state"})

// TrustPool is the minimal view of a trust store the orchestrator needs:
// just the current pool of trusted roots, so this package doesn't need to
// depend on internal/trust's concrete type.
type TrustPool interface {
	Pool() *x509.CertPool
}

// Downloader is the minimal view of the artifact cache the orchestrator
// needs, so this package depends on an interface rather than
// internal/artifactcache's concrete type (mirrors indexer.Store's role in
// claircore's indexer.Options: the dependency a Controller is tested
// against, not the dependency it's built with).
type Downloader interface {
	Dir(hostPort, version string) (string, error)
	Materialize(ctx context.Context, dir string, resources []ballista.Resource) ([]string, error)
}

// Options bundles the orchestrator's dependencies, scoped to the process
// the way indexer.Options scopes a Controller's.
type Options struct {
	JNLP  *jnlp.Client
	Cache Downloader
	Trust TrustPool
}

// Controller drives one launch request through the FSM.
type Controller struct {
	*Options

	conn ballista.Connection
	url  string

	resolved      *jnlp.Resolved
	hostPort      string
	jarDir        string
	artifactPaths []string

	plan ballista.LaunchPlan
	err  error

	currentState State
}

// Resolve runs the full FSM for conn and returns the resulting LaunchPlan.
func Resolve(ctx context.Context, opts *Options, conn ballista.Connection) (ballista.LaunchPlan, error) {
	ctx, span := tracer.Start(ctx, "launch.Resolve", trace.WithAttributes())
	defer span.End()

	c := &Controller{
		Options:      opts,
		conn:         conn,
		url:          conn.Address,
		currentState: ResolveJNLP,
	}
	ctx = baggageutil.ContextWithValues(ctx, "component", "launch/Controller", "address", conn.Address)
	ctx = zlog.ContextWithValues(ctx, "component", "launch/Controller", "address", conn.Address)
	err := c.run(ctx)
	state := Terminal
	if err != nil {
		state = Error
		span.RecordError(err)
	}
	launchesTotal.WithLabelValues(state.String()).Inc()
	return c.plan, err
}

func (c *Controller) run(ctx context.Context) error {
	for c.currentState != Terminal && c.currentState != Error {
		ctx := zlog.ContextWithValues(ctx, "state", c.currentState.String())
		fn, ok := stateToStateFunc[c.currentState]
		if !ok {
			return fmt.Errorf("launch: no stateFunc for state %s", c.currentState)
		}
		next, err := fn(ctx, c)
		if err != nil {
			c.err = err
			zlog.Error(ctx).Err(err).Msg("launch: state failed")
			c.currentState = Error
			return err
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		c.currentState = next
	}
	return nil
}
