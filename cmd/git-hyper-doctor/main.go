// ABOUTME: Diagnostic CLI for git-hyper installations
// ABOUTME: Checks dependencies, database health, SSH setup, and GitHub reachability

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/git-hyper/git-hyper/internal/config"
	"github.com/git-hyper/git-hyper/internal/doctor"
	"github.com/git-hyper/git-hyper/internal/run"
)

func main() {
	jsonOut := flag.Bool("json", false, "emit the report as JSON")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	d := doctor.New(cfg.Data.Dir, cfg.SSH.Dir, cfg.SSH.Host, cfg.SSH.User,
		cfg.Probe.Timeout, &run.ExecRunner{})
	report := d.Run(ctx)

	if *jsonOut {
		printJSON(report)
	} else {
		printHuman(report)
	}

	if !report.Healthy() {
		os.Exit(1)
	}
}

func printJSON(report *doctor.Report) {
	out := struct {
		Status string `json:"status"`
		*doctor.Report
	}{
		Status: report.Status(),
		Report: report,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHuman(report *doctor.Report) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Println("git-hyper doctor")
	fmt.Printf("  %s\n\n", report.Timestamp.Format("2006-01-02 15:04:05 MST"))

	for _, note := range report.Notes {
		color.Green("  ✓ %s", note)
	}
	for _, warning := range report.Warnings {
		color.Yellow("  ! %s", warning)
	}
	for _, issue := range report.Issues {
		color.Red("  ✗ %s", issue)
	}

	fmt.Println()
	if report.Healthy() {
		if len(report.Warnings) > 0 {
			color.Yellow("Status: ok with %d warning(s)", len(report.Warnings))
		} else {
			color.Green("Status: healthy")
		}
		return
	}

	color.Red("Status: %d issue(s) found", len(report.Issues))
	fmt.Println()
	fmt.Println("Suggested fixes:")
	fmt.Println("  - Install missing tools with your package manager (git, openssh)")
	fmt.Println("  - Run git-hyper once to recreate the database and SSH config")
	fmt.Println("  - chmod 700 ~/.ssh and chmod 600 ~/.ssh/config if permissions are flagged")
}
