// ABOUTME: Tests for the identity applier
// ABOUTME: Uses a recording fake runner; SSH config is written to a temp dir

package identity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git-hyper/git-hyper/internal/run"
	"github.com/git-hyper/git-hyper/internal/store"
)

// fakeRunner records invocations and optionally fails matching tools.
type fakeRunner struct {
	calls    [][]string
	failTool string
}

func (f *fakeRunner) Run(ctx context.Context, tool string, args ...string) (string, string, error) {
	f.calls = append(f.calls, append([]string{tool}, args...))
	if tool == f.failTool {
		return "", "boom", &run.ToolError{Tool: tool, Args: args, Output: "boom", Err: errors.New("exit status 1")}
	}
	return "", "", nil
}

func TestApplier_ApplyGitIdentity(t *testing.T) {
	runner := &fakeRunner{}
	applier := NewApplier(runner, t.TempDir(), "github.com", "git")

	err := applier.ApplyGitIdentity(context.Background(), "Alice", "alice@x.com")
	require.NoError(t, err)

	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{"git", "config", "--global", "user.name", "Alice"}, runner.calls[0])
	assert.Equal(t, []string{"git", "config", "--global", "user.email", "alice@x.com"}, runner.calls[1])
}

func TestApplier_ApplyGitIdentity_ToolFailure(t *testing.T) {
	runner := &fakeRunner{failTool: "git"}
	applier := NewApplier(runner, t.TempDir(), "github.com", "git")

	err := applier.ApplyGitIdentity(context.Background(), "Alice", "alice@x.com")
	assert.ErrorIs(t, err, run.ErrToolFailed)
}

func TestApplier_WriteSSHRouting(t *testing.T) {
	sshDir := filepath.Join(t.TempDir(), ".ssh")
	applier := NewApplier(&fakeRunner{}, sshDir, "github.com", "git")

	require.NoError(t, applier.WriteSSHRouting("/home/u/.ssh/git-login-alice"))

	configPath := filepath.Join(sshDir, "config")
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, ConfigMarker)
	assert.Contains(t, content, "Host github.com")
	assert.Contains(t, content, "IdentityFile /home/u/.ssh/git-login-alice")
	assert.Contains(t, content, "IdentitiesOnly yes")
	assert.Contains(t, content, "AddKeysToAgent yes")

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(sshDir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
}

func TestApplier_WriteSSHRouting_Overwrites(t *testing.T) {
	sshDir := filepath.Join(t.TempDir(), ".ssh")
	applier := NewApplier(&fakeRunner{}, sshDir, "github.com", "git")

	require.NoError(t, applier.WriteSSHRouting("/k/old"))
	require.NoError(t, applier.WriteSSHRouting("/k/new"))

	data, err := os.ReadFile(filepath.Join(sshDir, "config"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "/k/new")
	assert.NotContains(t, string(data), "/k/old", "rewrite is a full overwrite, not a merge")
}

func TestApplier_Apply_GitFailureSkipsSSHWrite(t *testing.T) {
	sshDir := filepath.Join(t.TempDir(), ".ssh")
	runner := &fakeRunner{failTool: "git"}
	applier := NewApplier(runner, sshDir, "github.com", "git")

	p := &store.Profile{Name: "Alice", Email: "alice@x.com", KeyPath: "/k/a"}
	err := applier.Apply(context.Background(), p)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(sshDir, "config"))
	assert.True(t, os.IsNotExist(statErr), "ssh config must not be written after a git failure")
}
