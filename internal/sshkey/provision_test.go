// ABOUTME: Tests for SSH key provisioning
// ABOUTME: Fake runner for ssh-keygen/ssh-add, real ed25519 keys for fingerprints

package sshkey

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"

	"github.com/git-hyper/git-hyper/internal/run"
)

type fakeRunner struct {
	calls    [][]string
	failTool string
}

func (f *fakeRunner) Run(ctx context.Context, tool string, args ...string) (string, string, error) {
	f.calls = append(f.calls, append([]string{tool}, args...))
	if tool == f.failTool {
		return "", "keygen failed", &run.ToolError{Tool: tool, Args: args, Output: "keygen failed", Err: errors.New("exit status 1")}
	}
	return "", "", nil
}

func TestProvisioner_KeyPathFor(t *testing.T) {
	p := NewProvisioner(&fakeRunner{}, "/home/u/.ssh")

	assert.Equal(t, "/home/u/.ssh/git-login-alice-smith", p.KeyPathFor("Alice Smith"))
	assert.Equal(t, "/home/u/.ssh/git-login-bob", p.KeyPathFor("bob"))
}

func TestProvisioner_Generate(t *testing.T) {
	sshDir := filepath.Join(t.TempDir(), ".ssh")
	runner := &fakeRunner{}
	p := NewProvisioner(runner, sshDir)

	keyPath, err := p.Generate(context.Background(), "Alice Smith", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sshDir, "git-login-alice-smith"), keyPath)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{
		"ssh-keygen", "-t", "ed25519", "-C", "alice@x.com", "-f", keyPath, "-N", "",
	}, runner.calls[0])

	info, err := os.Stat(sshDir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestProvisioner_Generate_ExistingFileCollision(t *testing.T) {
	sshDir := t.TempDir()
	p := NewProvisioner(&fakeRunner{}, sshDir)

	// Same display name derives the same path.
	existing := p.KeyPathFor("Alice")
	require.NoError(t, os.WriteFile(existing, []byte("key material"), 0o600))

	_, err := p.Generate(context.Background(), "Alice", "alice@x.com")
	assert.ErrorIs(t, err, run.ErrToolFailed)
}

func TestProvisioner_Generate_ToolFailure(t *testing.T) {
	p := NewProvisioner(&fakeRunner{failTool: "ssh-keygen"}, t.TempDir())

	_, err := p.Generate(context.Background(), "Alice", "alice@x.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, run.ErrToolFailed)
	assert.Contains(t, err.Error(), "keygen failed")
}

func TestProvisioner_RegisterWithAgent(t *testing.T) {
	runner := &fakeRunner{}
	p := NewProvisioner(runner, t.TempDir())

	require.NoError(t, p.RegisterWithAgent(context.Background(), "/k/a"))
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"ssh-add", "/k/a"}, runner.calls[0])
}

func TestReadPublicKey(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "git-login-alice")
	require.NoError(t, os.WriteFile(keyPath+".pub", []byte("ssh-ed25519 AAAA alice@x.com\n"), 0o644))

	assert.Equal(t, "ssh-ed25519 AAAA alice@x.com", ReadPublicKey(keyPath))
}

func TestReadPublicKey_Missing(t *testing.T) {
	assert.Equal(t, "", ReadPublicKey(filepath.Join(t.TempDir(), "nope")))
}

func TestFingerprint(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := gossh.NewPublicKey(pub)
	require.NoError(t, err)
	line := string(gossh.MarshalAuthorizedKey(sshPub))

	fp := Fingerprint(line)
	assert.True(t, strings.HasPrefix(fp, "SHA256:"), "got %q", fp)
	assert.Equal(t, gossh.FingerprintSHA256(sshPub), fp)
}

func TestFingerprint_Invalid(t *testing.T) {
	assert.Equal(t, "", Fingerprint("not a key"))
}
