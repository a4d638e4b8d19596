// ABOUTME: Installation diagnostics for git-hyper
// ABOUTME: Checks dependencies, database integrity, permissions, git config, and GitHub connectivity

package doctor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/git-hyper/git-hyper/internal/identity"
	"github.com/git-hyper/git-hyper/internal/run"
	"github.com/git-hyper/git-hyper/internal/sshkey"
)

// Report collects the outcome of a diagnostic sweep. Issues are problems
// that break the tool; warnings are conditions worth knowing about.
type Report struct {
	Issues    []string  `json:"issues"`
	Warnings  []string  `json:"warnings"`
	Notes     []string  `json:"notes"`
	Timestamp time.Time `json:"timestamp"`
}

// Healthy reports whether the sweep found no issues.
func (r *Report) Healthy() bool {
	return len(r.Issues) == 0
}

// Status returns "healthy" or "issues" for machine-readable output.
func (r *Report) Status() string {
	if r.Healthy() {
		return "healthy"
	}
	return "issues"
}

func (r *Report) issue(format string, args ...any) {
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// Doctor runs the diagnostic checks against one installation.
type Doctor struct {
	dataDir  string
	sshDir   string
	host     string
	user     string
	timeout  time.Duration
	runner   run.Runner
	lookPath func(string) (string, error)
	logger   *slog.Logger
}

// New creates a Doctor for the given data/SSH directories and probe target.
func New(dataDir, sshDir, host, user string, timeout time.Duration, runner run.Runner) *Doctor {
	return &Doctor{
		dataDir:  dataDir,
		sshDir:   sshDir,
		host:     host,
		user:     user,
		timeout:  timeout,
		runner:   runner,
		lookPath: exec.LookPath,
		logger:   slog.Default().With("component", "doctor"),
	}
}

// Run executes the full sweep and returns the report.
func (d *Doctor) Run(ctx context.Context) *Report {
	report := &Report{
		Issues:    []string{},
		Warnings:  []string{},
		Notes:     []string{},
		Timestamp: time.Now().UTC(),
	}

	d.CheckInstallation(report)
	d.CheckDependencies(ctx, report)
	d.CheckDatabase(report)
	d.CheckSSHConfiguration(report)
	d.CheckGitConfiguration(ctx, report)
	d.CheckPath(report)
	d.ProbeGitHub(ctx, report)

	d.logger.Info("diagnostic sweep finished",
		"issues", len(report.Issues), "warnings", len(report.Warnings))
	return report
}

// CheckInstallation verifies the data directory exists.
func (d *Doctor) CheckInstallation(r *Report) {
	if _, err := os.Stat(d.dataDir); err != nil {
		r.issue("data directory %s not found", d.dataDir)
		return
	}
	r.note("data directory %s present", d.dataDir)
}

// CheckDependencies verifies git, ssh, and ssh-keygen are available.
func (d *Doctor) CheckDependencies(ctx context.Context, r *Report) {
	stdout, _, err := d.runner.Run(ctx, "git", "--version")
	if err != nil {
		r.issue("git not installed or not on PATH")
	} else {
		r.note("%s", strings.TrimSpace(stdout))
	}

	// ssh prints its version on stderr
	_, stderr, err := d.runner.Run(ctx, "ssh", "-V")
	if err != nil && stderr == "" {
		r.issue("ssh not installed or not on PATH")
	} else {
		r.note("%s", strings.TrimSpace(stderr))
	}

	if _, err := d.lookPath("ssh-keygen"); err != nil {
		r.issue("ssh-keygen not available")
	} else {
		r.note("ssh-keygen available")
	}
}

// CheckDatabase verifies the profile database schema and the single-active
// invariant. A missing database is only a warning: it is created on first
// use.
func (d *Doctor) CheckDatabase(r *Report) {
	dbPath := filepath.Join(d.dataDir, "database.db")
	if _, err := os.Stat(dbPath); err != nil {
		r.warn("database not found (created on first use)")
		return
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		r.issue("database error: %v", err)
		return
	}
	defer db.Close()

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='accounts'`).Scan(&name)
	if err == sql.ErrNoRows {
		r.issue("table 'accounts' not found in database")
		return
	}
	if err != nil {
		r.issue("database error: %v", err)
		return
	}

	expected := map[string]bool{"id": false, "name": false, "email": false, "ssh_key_path": false, "active": false}
	rows, err := db.Query(`SELECT name FROM pragma_table_info('accounts')`)
	if err != nil {
		r.issue("database error: %v", err)
		return
	}
	defer rows.Close()
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			r.issue("database error: %v", err)
			return
		}
		if _, ok := expected[col]; ok {
			expected[col] = true
		}
	}
	var missing []string
	for col, seen := range expected {
		if !seen {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		r.issue("columns missing from accounts table: %s", strings.Join(missing, ", "))
	}

	var total, active int
	if err := db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&total); err != nil {
		r.issue("database error: %v", err)
		return
	}
	r.note("%d accounts found", total)

	if err := db.QueryRow(`SELECT COUNT(*) FROM accounts WHERE active = 1`).Scan(&active); err != nil {
		r.issue("database error: %v", err)
		return
	}
	switch {
	case active == 0:
		r.warn("no active account")
	case active > 1:
		r.issue("multiple active accounts (%d) - must be at most 1", active)
	}
}

// CheckSSHConfiguration verifies the SSH directory, config, and key
// permission bits (700 on the directory, 600 on private material, 644
// permitted on public keys).
func (d *Doctor) CheckSSHConfiguration(r *Report) {
	info, err := os.Stat(d.sshDir)
	if err != nil {
		r.warn("ssh directory %s does not exist", d.sshDir)
		return
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		r.issue("wrong permissions on %s (%o, should be 700)", d.sshDir, perm)
	}

	configPath := filepath.Join(d.sshDir, "config")
	if cfgInfo, err := os.Stat(configPath); err == nil {
		if perm := cfgInfo.Mode().Perm(); perm != 0o600 && perm != 0o644 {
			r.issue("wrong permissions on %s (%o)", configPath, perm)
		}
		data, err := os.ReadFile(configPath)
		if err != nil {
			r.issue("reading %s: %v", configPath, err)
		} else if strings.Contains(string(data), identity.ConfigMarker) {
			r.note("managed ssh config present")
		} else {
			r.warn("ssh config does not contain the git-hyper managed section")
		}
	} else {
		r.warn("ssh config %s not found", configPath)
	}

	keys, err := filepath.Glob(filepath.Join(d.sshDir, sshkey.KeyPrefix+"*"))
	if err != nil || len(keys) == 0 {
		r.warn("no git-hyper ssh keys found")
		return
	}
	r.note("%d ssh key files found", len(keys))

	for _, keyFile := range keys {
		keyInfo, err := os.Stat(keyFile)
		if err != nil {
			continue
		}
		perm := keyInfo.Mode().Perm()
		if strings.HasSuffix(keyFile, ".pub") {
			if perm != 0o644 && perm != 0o600 {
				r.warn("public key %s has permissions %o", filepath.Base(keyFile), perm)
			}
		} else if perm != 0o600 {
			r.issue("private key %s has permissions %o (should be 600)", filepath.Base(keyFile), perm)
		}
	}
}

// CheckGitConfiguration verifies the global git identity is set.
func (d *Doctor) CheckGitConfiguration(ctx context.Context, r *Report) {
	stdout, _, err := d.runner.Run(ctx, "git", "config", "--global", "user.name")
	if err != nil || strings.TrimSpace(stdout) == "" {
		r.warn("git user.name not configured")
	} else {
		r.note("user.name: %s", strings.TrimSpace(stdout))
	}

	stdout, _, err = d.runner.Run(ctx, "git", "config", "--global", "user.email")
	if err != nil || strings.TrimSpace(stdout) == "" {
		r.warn("git user.email not configured")
	} else {
		r.note("user.email: %s", strings.TrimSpace(stdout))
	}
}

// CheckPath warns when ~/.local/bin is not on PATH.
func (d *Doctor) CheckPath(r *Report) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return
	}
	localBin := filepath.Join(homeDir, ".local", "bin")
	if !strings.Contains(os.Getenv("PATH"), localBin) {
		r.warn("%s is not on PATH", localBin)
	} else {
		r.note("%s is on PATH", localBin)
	}
}

// ProbeGitHub tests SSH authentication against the configured host. The
// probe is bounded by the configured timeout; expiry is a failure, never a
// retry. GitHub closes the connection with a non-zero exit even on success,
// so success is recognized by the diagnostic text, not the exit code.
func (d *Doctor) ProbeGitHub(ctx context.Context, r *Report) {
	probeCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	target := d.user + "@" + d.host
	_, stderr, err := d.runner.Run(probeCtx, "ssh", "-T", target,
		"-o", "BatchMode=yes",
		"-o", fmt.Sprintf("ConnectTimeout=%d", int(d.timeout.Seconds())))

	diag := stderr
	var toolErr *run.ToolError
	if errors.As(err, &toolErr) && toolErr.Output != "" {
		diag = toolErr.Output
	}

	if probeCtx.Err() != nil {
		r.issue("timeout connecting to %s", d.host)
		return
	}

	if !strings.Contains(diag, "successfully authenticated") {
		r.issue("ssh authentication to %s failed", d.host)
		return
	}

	// GitHub's banner looks like "Hi username! You've successfully ..."
	for _, line := range strings.Split(diag, "\n") {
		if strings.Contains(line, "successfully authenticated") && strings.Contains(line, "!") {
			fields := strings.Fields(strings.SplitN(line, "!", 2)[0])
			if len(fields) > 0 {
				r.note("authenticated as %s", fields[len(fields)-1])
				return
			}
		}
	}
	r.note("ssh connection to %s working", d.host)
}
