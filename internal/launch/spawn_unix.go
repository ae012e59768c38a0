//go:build !windows

package launch

import (
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// detach puts the child in its own session so it survives the launcher
// exiting, the way indexer's worker processes are isolated from the
// controller's lifetime.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// checkExecutable fails fast with a clear error when the resolved java
// binary isn't actually executable, rather than letting exec.Start's
// opaque ENOENT/EACCES surface to the launch response. Grounded on the
// toolkit/spool package's platform-specific-file pattern for reaching
// past syscall into golang.org/x/sys/unix for checks the stdlib doesn't
// expose portably.
func checkExecutable(path string) error {
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fmt.Errorf("launch: %s is not executable: %w", path, err)
	}
	return nil
}
