// ABOUTME: Projects a profile onto host-level Git and SSH configuration
// ABOUTME: Writes global git user settings and the managed ~/.ssh/config block

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/git-hyper/git-hyper/internal/run"
	"github.com/git-hyper/git-hyper/internal/store"
)

// ConfigMarker identifies an SSH config written by git-hyper. Backup and
// diagnostics look for this line before touching the file.
const ConfigMarker = "# Git Login Manager Configuration"

// Applier makes the host's Git and SSH tooling reflect one profile.
// Applying is a full overwrite of the SSH client config: manual edits
// outside the managed section do not survive a switch.
type Applier struct {
	runner  run.Runner
	sshDir  string
	host    string
	sshUser string
	logger  *slog.Logger
}

// NewApplier creates an Applier that writes the SSH config under sshDir and
// routes traffic for host (normally github.com) through the active key.
func NewApplier(runner run.Runner, sshDir, host, sshUser string) *Applier {
	return &Applier{
		runner:  runner,
		sshDir:  sshDir,
		host:    host,
		sshUser: sshUser,
		logger:  slog.Default().With("component", "identity"),
	}
}

// ApplyGitIdentity sets user.name and user.email in the global Git config.
// The effect is process-wide for the user, not scoped to a repository.
func (a *Applier) ApplyGitIdentity(ctx context.Context, name, email string) error {
	if _, _, err := a.runner.Run(ctx, "git", "config", "--global", "user.name", name); err != nil {
		return fmt.Errorf("setting git user.name: %w", err)
	}
	if _, _, err := a.runner.Run(ctx, "git", "config", "--global", "user.email", email); err != nil {
		return fmt.Errorf("setting git user.email: %w", err)
	}

	a.logger.Info("applied git identity", "name", name, "email", email)
	return nil
}

// WriteSSHRouting overwrites the SSH client config so connections to the
// configured host use keyPath exclusively (IdentitiesOnly disables fallback
// to other loaded identities). The parent directory is created owner-only
// if absent and the config file ends up mode 0600.
func (a *Applier) WriteSSHRouting(keyPath string) error {
	if err := os.MkdirAll(a.sshDir, 0o700); err != nil {
		return fmt.Errorf("creating ssh directory: %w", err)
	}

	configPath := filepath.Join(a.sshDir, "config")
	content := fmt.Sprintf(`%s
Host %s
    HostName %s
    User %s
    IdentityFile %s
    IdentitiesOnly yes

Host *
    AddKeysToAgent yes
`, ConfigMarker, a.host, a.host, a.sshUser, keyPath)

	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing ssh config: %w", err)
	}
	// WriteFile only applies the mode on creation
	if err := os.Chmod(configPath, 0o600); err != nil {
		return fmt.Errorf("setting ssh config permissions: %w", err)
	}

	a.logger.Info("wrote ssh routing", "host", a.host, "key", keyPath)
	return nil
}

// Apply runs both halves of the identity switch for a profile. There is no
// partial mode: a failed git step aborts before the SSH config is touched.
func (a *Applier) Apply(ctx context.Context, p *store.Profile) error {
	if err := a.ApplyGitIdentity(ctx, p.Name, p.Email); err != nil {
		return err
	}
	return a.WriteSSHRouting(p.KeyPath)
}
