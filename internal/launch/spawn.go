package launch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/quay/zlog"

	"github.com/kayyagari/ballista"
)

// Spawn starts the JVM described by plan as a detached child process,
// redirecting its stdout/stderr to a log file under the OS temp directory,
// and returns without waiting for it to exit.
func Spawn(ctx context.Context, plan ballista.LaunchPlan) error {
	javaPath, err := exec.LookPath(plan.JavaExecutable)
	if err != nil {
		return fmt.Errorf("launch: resolving %s: %w", plan.JavaExecutable, err)
	}
	if err := checkExecutable(javaPath); err != nil {
		return err
	}

	logPath := filepath.Join(os.TempDir(), "ballista.log")
	f, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("launch: creating log file %s: %w", logPath, err)
	}

	cmd := exec.Command(plan.JavaExecutable, plan.Args...)
	cmd.Stdout = f
	cmd.Stderr = f
	if len(plan.Env) > 0 {
		env := os.Environ()
		for k, v := range plan.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}
	detach(cmd)

	var size uint64
	for _, p := range plan.Classpath {
		if fi, err := os.Stat(p); err == nil {
			size += uint64(fi.Size())
		}
	}
	zlog.Info(ctx).
		Str("java", plan.JavaExecutable).
		Str("main_class", plan.MainClass).
		Str("classpath_size", humanize.Bytes(size)).
		Str("log_file", logPath).
		Msg("launch: spawning jvm")

	if err := cmd.Start(); err != nil {
		f.Close()
		return fmt.Errorf("launch: starting %s: %w", plan.JavaExecutable, err)
	}
	// The log file descriptor is inherited by the child; the parent's own
	// handle can be closed once the process has started.
	f.Close()
	return nil
}
