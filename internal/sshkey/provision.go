// ABOUTME: SSH key provisioning for profiles
// ABOUTME: Generates ed25519 key pairs, registers them with the agent, reads public keys

package sshkey

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/git-hyper/git-hyper/internal/run"
)

// KeyPrefix is the file name prefix of keys generated by git-hyper. Backup
// and diagnostics use it to find keys that belong to the tool.
const KeyPrefix = "git-login-"

// Provisioner generates and registers SSH keys under a single directory.
type Provisioner struct {
	runner run.Runner
	sshDir string
	logger *slog.Logger
}

// NewProvisioner creates a Provisioner writing keys under sshDir.
func NewProvisioner(runner run.Runner, sshDir string) *Provisioner {
	return &Provisioner{
		runner: runner,
		sshDir: sshDir,
		logger: slog.Default().With("component", "sshkey"),
	}
}

// KeyPathFor derives the deterministic key file path for a profile name:
// lower-cased, spaces replaced with dashes. Two profiles with the same name
// collide on the same path; generation then fails rather than overwriting.
func (p *Provisioner) KeyPathFor(name string) string {
	slug := strings.ReplaceAll(strings.ToLower(name), " ", "-")
	return filepath.Join(p.sshDir, KeyPrefix+slug)
}

// Generate creates a new ed25519 key pair with no passphrase at the derived
// path and returns that path. Any ssh-keygen failure, including an existing
// file at the derived path, surfaces as a ToolError with the tool's output.
func (p *Provisioner) Generate(ctx context.Context, name, email string) (string, error) {
	if err := os.MkdirAll(p.sshDir, 0o700); err != nil {
		return "", fmt.Errorf("creating ssh directory: %w", err)
	}

	keyPath := p.KeyPathFor(name)
	if _, err := os.Stat(keyPath); err == nil {
		return "", &run.ToolError{
			Tool:   "ssh-keygen",
			Args:   []string{"-f", keyPath},
			Output: fmt.Sprintf("%s already exists", keyPath),
			Err:    os.ErrExist,
		}
	}

	_, _, err := p.runner.Run(ctx, "ssh-keygen",
		"-t", "ed25519",
		"-C", email,
		"-f", keyPath,
		"-N", "",
	)
	if err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}

	p.logger.Info("generated ssh key", "path", keyPath)
	return keyPath, nil
}

// RegisterWithAgent adds the key at keyPath to the running SSH agent.
func (p *Provisioner) RegisterWithAgent(ctx context.Context, keyPath string) error {
	if _, _, err := p.runner.Run(ctx, "ssh-add", keyPath); err != nil {
		return fmt.Errorf("adding key to agent: %w", err)
	}

	p.logger.Info("registered key with agent", "path", keyPath)
	return nil
}

// ReadPublicKey returns the contents of keyPath+".pub", trimmed. A missing
// or unreadable file yields an empty string, never an error.
func ReadPublicKey(keyPath string) string {
	data, err := os.ReadFile(keyPath + ".pub")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Fingerprint returns the SHA256 fingerprint of a public key in
// authorized_keys format, or an empty string if the key does not parse.
func Fingerprint(pub string) string {
	key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(pub))
	if err != nil {
		return ""
	}
	return ssh.FingerprintSHA256(key)
}
