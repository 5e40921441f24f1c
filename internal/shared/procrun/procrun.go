// Package procrun isolates external tool invocation behind a narrow runner
// interface, so callers see a tagged result instead of raw process objects.
package procrun

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner executes an external tool as an isolated process.
// Success or failure is communicated by the exit code only; on failure the
// returned error carries captured stderr for diagnostics.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecCommandRunner uses os/exec.
type ExecCommandRunner struct{}

// Run runs the command and waits for it to exit. A non-zero exit wraps the
// exec error with the tail of stderr.
func (ExecCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if s := tail(stderr.String(), 10); s != "" {
			return fmt.Errorf("%s: %w: %s", name, err, s)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// tail returns the last n non-empty lines of s as a single line.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	kept := make([]string, 0, n)
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, strings.TrimSpace(l))
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, " | ")
}
