// ABOUTME: Backup CLI for git-hyper account data and SSH keys
// ABOUTME: Creates, lists, restores, and prunes tar.gz archives

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/git-hyper/git-hyper/internal/backup"
	"github.com/git-hyper/git-hyper/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}

	mgr := backup.NewManager(cfg.Data.Dir, cfg.SSH.Dir, cfg.Backup.Dir)

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "create":
		err = cmdCreate(mgr, args)
	case "list":
		err = cmdList(mgr)
	case "restore":
		err = cmdRestore(mgr, args)
	case "cleanup":
		err = cmdCleanup(mgr, cfg.Backup.Keep, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func printUsage() {
	yellow := color.New(color.FgYellow)

	fmt.Println("Usage: git-hyper-backup <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  create [--name NAME]    Create a backup archive")
	fmt.Println("  list                    List available backups, newest first")
	fmt.Println("  restore --file PATH     Restore from an archive")
	fmt.Println("  cleanup [--keep N]      Delete all but the N newest backups")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  GIT_HYPER_CONFIG        Config file path (default: ~/.config/git-hyper/config.yaml)")
	fmt.Println()
}

func cmdCreate(mgr *backup.Manager, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "archive name (default: timestamped)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := mgr.Create(*name)
	if err != nil {
		return err
	}

	manifest, err := backup.ReadManifest(path)
	if err != nil {
		return fmt.Errorf("reading back manifest: %w", err)
	}

	color.Green("Backup created: %s", path)
	fmt.Printf("  %d account(s), id %s\n", len(manifest.Accounts), manifest.BackupID)
	return nil
}

func cmdList(mgr *backup.Manager) error {
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Println("No backups found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ARCHIVE\tSIZE\tACCOUNTS\tCREATED")
	fmt.Fprintln(w, "  -------\t----\t--------\t-------")
	for _, b := range backups {
		accounts := "?"
		if b.Accounts >= 0 {
			accounts = fmt.Sprintf("%d", b.Accounts)
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
			filepath.Base(b.Path),
			formatSize(b.Size),
			accounts,
			b.ModTime.Format("Jan 02 15:04"),
		)
	}
	w.Flush()
	return nil
}

func cmdRestore(mgr *backup.Manager, args []string) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	file := fs.String("file", "", "archive to restore from")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("restore requires --file")
	}

	manifest, err := backup.ReadManifest(*file)
	if err != nil {
		return fmt.Errorf("not a usable backup archive: %w", err)
	}

	fmt.Printf("Restoring %d account(s) from %s (taken %s).\n",
		len(manifest.Accounts), filepath.Base(*file),
		manifest.BackupDate.Format("2006-01-02 15:04"))
	fmt.Println("Current data is backed up first, then replaced.")

	if err := mgr.Restore(*file); err != nil {
		return err
	}
	color.Green("Restore complete.")
	return nil
}

func cmdCleanup(mgr *backup.Manager, defaultKeep int, args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	keep := fs.Int("keep", defaultKeep, "number of backups to keep")
	if err := fs.Parse(args); err != nil {
		return err
	}

	removed, err := mgr.Cleanup(*keep)
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		fmt.Printf("Nothing to clean up; %d or fewer backups present.\n", *keep)
		return nil
	}
	for _, path := range removed {
		fmt.Printf("Removed %s\n", filepath.Base(path))
	}
	color.Green("%d backup(s) removed.", len(removed))
	return nil
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
