//go:build windows

package launch

import "os/exec"

// detach is a no-op on Windows: os/exec already starts the child without a
// console tie to the parent once the parent exits.
func detach(cmd *exec.Cmd) {}

// checkExecutable is a no-op on Windows: exec.LookPath's .exe/.bat/.cmd
// extension resolution already covers what the unix X_OK check buys us.
func checkExecutable(path string) error { return nil }
