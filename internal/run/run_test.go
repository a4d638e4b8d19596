// ABOUTME: Tests for the process runner and ToolError formatting
// ABOUTME: Uses real exec against universally available commands

package run

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_Run(t *testing.T) {
	runner := NewExecRunner()

	stdout, _, err := runner.Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", stdout)
}

func TestExecRunner_Run_Failure(t *testing.T) {
	runner := NewExecRunner()

	_, _, err := runner.Run(context.Background(), "false")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolFailed)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "false", toolErr.Tool)
}

func TestExecRunner_Run_MissingTool(t *testing.T) {
	runner := NewExecRunner()

	_, _, err := runner.Run(context.Background(), "definitely-not-a-real-tool-xyz")
	assert.ErrorIs(t, err, ErrToolFailed)
}

func TestToolError_Message(t *testing.T) {
	err := &ToolError{
		Tool:   "git",
		Args:   []string{"config", "--global", "user.name"},
		Output: "fatal: bad config\n",
		Err:    errors.New("exit status 128"),
	}

	msg := err.Error()
	assert.Contains(t, msg, "git config --global user.name")
	assert.Contains(t, msg, "fatal: bad config")
}
