// ABOUTME: External process execution abstraction for git/ssh tooling
// ABOUTME: Defines the Runner interface, the exec-backed default, and ToolError

package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrToolFailed is the sentinel wrapped by every ToolError.
var ErrToolFailed = errors.New("external tool failed")

// ToolError carries the identity and diagnostic output of a failed external
// tool invocation.
type ToolError struct {
	Tool   string
	Args   []string
	Output string // stderr (or combined output) from the tool
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Tool, strings.Join(e.Args, " "), e.Err)
	if e.Output != "" {
		msg += ": " + strings.TrimSpace(e.Output)
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return ErrToolFailed
}

// Runner executes external commands. Components take a Runner instead of
// calling os/exec directly so tests never shell out.
type Runner interface {
	// Run executes the tool and returns its stdout and stderr. A non-zero
	// exit returns a *ToolError wrapping ErrToolFailed.
	Run(ctx context.Context, tool string, args ...string) (stdout, stderr string, err error)
}

// ExecRunner is the default Runner backed by os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner that invokes real processes.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, tool string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, tool, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return stdout.String(), stderr.String(), &ToolError{
			Tool:   tool,
			Args:   args,
			Output: stderr.String(),
			Err:    err,
		}
	}

	return stdout.String(), stderr.String(), nil
}
