// ABOUTME: Entry point for the git-hyper terminal menu
// ABOUTME: Wires the store, applier, and provisioner into the TUI

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/git-hyper/git-hyper/internal/account"
	"github.com/git-hyper/git-hyper/internal/config"
	"github.com/git-hyper/git-hyper/internal/identity"
	"github.com/git-hyper/git-hyper/internal/run"
	"github.com/git-hyper/git-hyper/internal/sshkey"
	"github.com/git-hyper/git-hyper/internal/store"
	"github.com/git-hyper/git-hyper/internal/tui"
)

// Version is set by goreleaser at build time.
var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version":
			fmt.Printf("git-hyper %s\n", version)
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
			fmt.Fprintln(os.Stderr, "git-hyper runs as an interactive menu; invoke it without arguments.")
			os.Exit(1)
		}
	}

	if err := runTUI(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI() error {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	setupLogger(cfg.Logging)

	if err := os.MkdirAll(cfg.Data.Dir, 0o700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Data.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening account store: %w", err)
	}
	defer st.Close()

	runner := &run.ExecRunner{}
	applier := identity.NewApplier(runner, cfg.SSH.Dir, cfg.SSH.Host, cfg.SSH.User)
	provisioner := sshkey.NewProvisioner(runner, cfg.SSH.Dir)
	svc := account.NewService(st, applier)

	slog.Info("starting git-hyper",
		"version", version,
		"database", cfg.Data.DatabasePath,
	)

	model := tui.New(svc, provisioner, runner, cfg.SSH.Host, cfg.SSH.User, cfg.Probe.Timeout)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

// setupLogger routes slog to a rotating file. Stdout belongs to the TUI, so
// logs never go there.
func setupLogger(cfg config.LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logFile := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}

	handler := slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
