package launch

import (
	"context"
	"fmt"
)

// resolveJNLP fetches and parses the server's JNLP descriptor, recursively
// resolving any nested extensions, and records the host_port/version
// coordinates under which its jars are cached.
func resolveJNLP(ctx context.Context, c *Controller) (State, error) {
	resolved, err := c.JNLP.Resolve(ctx, c.url)
	if err != nil {
		return Error, fmt.Errorf("launch: resolving JNLP descriptor: %w", err)
	}
	c.resolved = resolved
	c.hostPort = resolved.HostPort
	c.plan.MainClass = resolved.Doc.MainClass
	c.plan.Args = resolved.Doc.Args
	return MaterializeArtifacts, nil
}
