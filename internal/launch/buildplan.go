package launch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kayyagari/ballista/internal/jnlp"
)

// buildPlan assembles the final invocation plan from the materialized jars,
// the connection's heap/java-home/credential settings, and any j2se
// vm-args the descriptor carried, in the order webstart.rs's run() builds
// its Command.
func buildPlan(ctx context.Context, c *Controller) (State, error) {
	classpath, err := classpathOf(c.jarDir)
	if err != nil {
		return Error, fmt.Errorf("launch: building classpath: %w", err)
	}
	c.plan.Classpath = classpath

	javaHome := strings.TrimSpace(c.conn.JavaHome)
	if javaHome == "" {
		c.plan.JavaExecutable = "java"
	} else {
		c.plan.JavaExecutable = filepath.Join(javaHome, "bin", "java")
	}

	c.plan.Env = make(map[string]string)
	if vmArgs, ok := jnlp.SelectVMArgs(c.resolved.Doc.J2SEs); ok {
		c.plan.Env["JDK_JAVA_OPTIONS"] = vmArgs
	}

	args := make([]string, 0, 4+len(c.plan.Args))
	if heap := strings.TrimSpace(c.conn.HeapSize); heap != "" {
		args = append(args, "-Xmx"+heap)
	}
	args = append(args, "-cp", strings.Join(classpath, string(os.PathListSeparator)))
	args = append(args, c.plan.MainClass)
	args = append(args, c.plan.Args...)
	if c.conn.Username != "" {
		args = append(args, c.conn.Username)
		if c.conn.Password != "" {
			args = append(args, c.conn.Password)
		}
	}
	c.plan.Args = args

	return Terminal, nil
}

// classpathOf lists every jar under dir, ordering mirth-prefixed jars
// first: MirthConnect's own jars override classes of libraries they bundle
// and must be loaded ahead of them.
// https://forums.mirthproject.io/forum/mirth-connect/support/15524-using-com-mirth-connect-client-core-client
func classpathOf(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var mirth, rest []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if strings.HasPrefix(e.Name(), "mirth") {
			mirth = append(mirth, path)
		} else {
			rest = append(rest, path)
		}
	}
	sort.Strings(mirth)
	sort.Strings(rest)
	return append(mirth, rest...), nil
}
