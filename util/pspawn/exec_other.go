//go:build !darwin

package pspawn

import (
	"context"
	"os/exec"
)

type Error = exec.Error
type ExitError = exec.ExitError
type Cmd = exec.Cmd

var ErrNotFound = exec.ErrNotFound

func Command(name string, arg ...string) *Cmd {
	return exec.Command(name, arg...)
}

func CommandContext(ctx context.Context, name string, arg ...string) *Cmd {
	return exec.CommandContext(ctx, name, arg...)
}

// SetDisclaim marks cmd to disclaim TCC responsibility on start. No-op on
// platforms without the concept.
func SetDisclaim(cmd *Cmd, disclaim bool) {
}
