package launch

import (
	"context"
	"fmt"
)

// materializeArtifacts downloads (or reuses cached copies of) every jar
// resource the resolved JNLP document listed.
func materializeArtifacts(ctx context.Context, c *Controller) (State, error) {
	dir, err := c.Cache.Dir(c.hostPort, c.resolved.Doc.Version)
	if err != nil {
		return Error, fmt.Errorf("launch: preparing cache directory: %w", err)
	}
	c.jarDir = dir

	paths, err := c.Cache.Materialize(ctx, dir, c.resolved.Doc.Resources)
	if err != nil {
		return Error, fmt.Errorf("launch: materializing artifacts: %w", err)
	}
	c.artifactPaths = paths
	return VerifyArtifacts, nil
}
