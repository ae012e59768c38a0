package launch

import (
	"context"

	"github.com/quay/zlog"

	"github.com/kayyagari/ballista/internal/verify"
)

// verifyArtifacts runs the jarsigner signature check over every
// materialized jar, unless the connection has signature verification
// turned off (spec.md §4.2's "verify" flag on a saved connection).
func verifyArtifacts(ctx context.Context, c *Controller) (State, error) {
	if !c.conn.Verify {
		zlog.Debug(ctx).Msg("launch: signature verification disabled for this connection")
		return BuildPlan, nil
	}

	pool := c.Trust.Pool()
	for _, path := range c.artifactPaths {
		if path == "" {
			continue
		}
		if err := verify.JAR(ctx, path, pool); err != nil {
			return Error, err
		}
	}
	return BuildPlan, nil
}
