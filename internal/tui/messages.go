// ABOUTME: Bubbletea messages and async commands for the git-hyper TUI
// ABOUTME: Wraps service calls and the ssh probe into tea.Cmd values

package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/git-hyper/git-hyper/internal/account"
	"github.com/git-hyper/git-hyper/internal/run"
	"github.com/git-hyper/git-hyper/internal/sshkey"
	"github.com/git-hyper/git-hyper/internal/store"
)

// profilesLoadedMsg carries the refreshed profile list and active profile.
type profilesLoadedMsg struct {
	profiles []*store.Profile
	current  *store.Profile // nil when no profile is active
}

// accountCreatedMsg reports a finished create, including the public key to
// show for upload when a key was generated.
type accountCreatedMsg struct {
	result      *account.Result
	publicKey   string
	fingerprint string
}

// activatedMsg reports a finished switch.
type activatedMsg struct {
	result *account.Result
}

// deletedMsg reports a finished removal.
type deletedMsg struct {
	name string
}

// probeDoneMsg reports the GitHub connectivity probe outcome.
type probeDoneMsg struct {
	ok     bool
	detail string
}

// errMsg carries any failed operation back to the UI.
type errMsg struct {
	err error
}

func (m Model) loadProfilesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		profiles, err := m.svc.List(ctx)
		if err != nil {
			return errMsg{err}
		}

		current, err := m.svc.Current(ctx)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return errMsg{err}
		}

		return profilesLoadedMsg{profiles: profiles, current: current}
	}
}

// createAccountCmd provisions a key if requested, then creates and applies
// the profile.
func (m Model) createAccountCmd(name, email string, mode keyMode, keyPath string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		if mode == keyModeGenerate {
			generated, err := m.provisioner.Generate(ctx, name, email)
			if err != nil {
				return errMsg{fmt.Errorf("generating ssh key: %w", err)}
			}
			keyPath = generated

			if err := m.provisioner.RegisterWithAgent(ctx, keyPath); err != nil {
				return errMsg{fmt.Errorf("registering key with agent: %w", err)}
			}
		} else {
			if _, err := os.Stat(keyPath); err != nil {
				return errMsg{fmt.Errorf("key file not found: %s", keyPath)}
			}
		}

		result, err := m.svc.Create(ctx, name, email, keyPath)
		if err != nil {
			return errMsg{err}
		}

		msg := accountCreatedMsg{result: result}
		if pub := sshkey.ReadPublicKey(keyPath); pub != "" {
			msg.publicKey = pub
			msg.fingerprint = sshkey.Fingerprint(pub)
		}
		return msg
	}
}

func (m Model) activateCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		result, err := m.svc.Activate(context.Background(), id)
		if err != nil {
			return errMsg{err}
		}
		return activatedMsg{result: result}
	}
}

func (m Model) deleteCmd(p *store.Profile) tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.Delete(context.Background(), p.ID); err != nil {
			return errMsg{err}
		}
		return deletedMsg{name: p.Name}
	}
}

// probeCmd tests SSH authentication against the configured host with the
// configured timeout. GitHub exits non-zero even on success, so only the
// diagnostic text decides the outcome.
func (m Model) probeCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.probeTimeout)
		defer cancel()

		_, stderr, err := m.runner.Run(ctx, "ssh", "-T", m.user+"@"+m.host,
			"-o", "BatchMode=yes",
			"-o", fmt.Sprintf("ConnectTimeout=%d", int(m.probeTimeout.Seconds())))

		diag := toolDiagnostic(err, stderr)

		if ctx.Err() != nil {
			return probeDoneMsg{ok: false, detail: "connection timed out"}
		}
		if strings.Contains(diag, "successfully authenticated") {
			return probeDoneMsg{ok: true, detail: strings.TrimSpace(diag)}
		}
		return probeDoneMsg{ok: false, detail: strings.TrimSpace(diag)}
	}
}

// toolDiagnostic prefers the stderr captured inside a ToolError, since the
// probe reports success through a command that exits non-zero.
func toolDiagnostic(err error, stderr string) string {
	var toolErr *run.ToolError
	if errors.As(err, &toolErr) && toolErr.Output != "" {
		return toolErr.Output
	}
	return stderr
}
