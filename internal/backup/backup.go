// ABOUTME: Backup and restore of the git-hyper data directory, SSH keys, and SSH config
// ABOUTME: Builds tar.gz archives carrying a JSON manifest of profile records

package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/git-hyper/git-hyper/internal/identity"
	"github.com/git-hyper/git-hyper/internal/sshkey"
	"github.com/git-hyper/git-hyper/internal/store"
)

const (
	// ArchivePrefix names backup archives; Cleanup and List only consider
	// files matching this prefix.
	ArchivePrefix = "git-hyper-backup-"

	manifestName    = "backup_manifest.json"
	manifestVersion = "1.0"

	// Archive member prefixes.
	dataPrefix      = "git-hyper/"
	keysPrefix      = "ssh-keys/"
	sshConfigMember = "ssh-config/config"
)

// ManifestAccount is one profile record inside a backup manifest.
type ManifestAccount struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	SSHKeyPath string `json:"ssh_key_path"`
	Active     bool   `json:"active"`
}

// Manifest describes a backup archive: which profiles it carried and which
// one was active at backup time.
type Manifest struct {
	BackupID   string            `json:"backup_id"`
	BackupDate time.Time         `json:"backup_date"`
	Version    string            `json:"version"`
	Accounts   []ManifestAccount `json:"accounts"`
}

// Info summarizes an archive for listing.
type Info struct {
	Path     string
	Size     int64
	ModTime  time.Time
	Accounts int // -1 when the manifest could not be read
}

// Manager creates, lists, restores, and prunes backup archives.
type Manager struct {
	dataDir   string
	sshDir    string
	backupDir string
	logger    *slog.Logger
}

// NewManager creates a Manager over the given directories.
func NewManager(dataDir, sshDir, backupDir string) *Manager {
	return &Manager{
		dataDir:   dataDir,
		sshDir:    sshDir,
		backupDir: backupDir,
		logger:    slog.Default().With("component", "backup"),
	}
}

// Create builds a tar.gz archive of the data directory, the tool's SSH keys,
// and the SSH config (only when it carries the managed marker), plus a JSON
// manifest. An empty name derives one from the current timestamp. Returns
// the archive path.
func (m *Manager) Create(name string) (string, error) {
	if _, err := os.Stat(m.dataDir); err != nil {
		return "", fmt.Errorf("data directory %s not found: %w", m.dataDir, err)
	}

	if name == "" {
		name = ArchivePrefix + time.Now().Format("20060102_150405")
	}

	if err := os.MkdirAll(m.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	archivePath := filepath.Join(m.backupDir, name+".tar.gz")

	f, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	if err := m.addDataDir(tw); err != nil {
		return "", fmt.Errorf("archiving data directory: %w", err)
	}

	keyCount, err := m.addSSHKeys(tw)
	if err != nil {
		return "", fmt.Errorf("archiving ssh keys: %w", err)
	}

	if err := m.addSSHConfig(tw); err != nil {
		return "", fmt.Errorf("archiving ssh config: %w", err)
	}

	manifest := m.buildManifest()
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding manifest: %w", err)
	}
	if err := writeTarFile(tw, manifestName, manifestData, 0o644); err != nil {
		return "", fmt.Errorf("archiving manifest: %w", err)
	}

	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("finalizing tar: %w", err)
	}
	if err := gw.Close(); err != nil {
		return "", fmt.Errorf("finalizing gzip: %w", err)
	}

	m.logger.Info("created backup", "path", archivePath,
		"accounts", len(manifest.Accounts), "keys", keyCount)
	return archivePath, nil
}

// buildManifest reads the profile table for the manifest. A missing or
// unreadable database yields an empty account list rather than a failure.
func (m *Manager) buildManifest() *Manifest {
	manifest := &Manifest{
		BackupID:   uuid.NewString(),
		BackupDate: time.Now().UTC(),
		Version:    manifestVersion,
		Accounts:   []ManifestAccount{},
	}

	dbPath := filepath.Join(m.dataDir, "database.db")
	if _, err := os.Stat(dbPath); err != nil {
		return manifest
	}

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		m.logger.Warn("reading database for manifest failed", "error", err)
		return manifest
	}
	defer st.Close()

	profiles, err := st.ListAll(context.Background())
	if err != nil {
		m.logger.Warn("listing profiles for manifest failed", "error", err)
		return manifest
	}

	for _, p := range profiles {
		manifest.Accounts = append(manifest.Accounts, ManifestAccount{
			ID:         p.ID,
			Name:       p.Name,
			Email:      p.Email,
			SSHKeyPath: p.KeyPath,
			Active:     p.Active,
		})
	}
	return manifest
}

// addDataDir archives the data directory recursively under git-hyper/.
func (m *Manager) addDataDir(tw *tar.Writer) error {
	return filepath.Walk(m.dataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(m.dataDir, path)
		if err != nil {
			return err
		}
		return addFile(tw, path, dataPrefix+filepath.ToSlash(rel), info)
	})
}

// addSSHKeys archives every key file matching the tool's naming pattern.
func (m *Manager) addSSHKeys(tw *tar.Writer) (int, error) {
	matches, err := filepath.Glob(filepath.Join(m.sshDir, sshkey.KeyPrefix+"*"))
	if err != nil {
		return 0, err
	}

	for _, keyFile := range matches {
		info, err := os.Stat(keyFile)
		if err != nil {
			return 0, err
		}
		if err := addFile(tw, keyFile, keysPrefix+filepath.Base(keyFile), info); err != nil {
			return 0, err
		}
	}
	return len(matches), nil
}

// addSSHConfig archives the SSH config only when git-hyper owns it, i.e. it
// contains the managed marker. Hand-written configs are left out.
func (m *Manager) addSSHConfig(tw *tar.Writer) error {
	configPath := filepath.Join(m.sshDir, "config")
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), identity.ConfigMarker) {
		return nil
	}
	return writeTarFile(tw, sshConfigMember, data, 0o600)
}

// List returns the archives in the backup directory, newest first, with the
// account count from each manifest where readable.
func (m *Manager) List() ([]Info, error) {
	matches, err := filepath.Glob(filepath.Join(m.backupDir, ArchivePrefix+"*.tar.gz"))
	if err != nil {
		return nil, fmt.Errorf("globbing backups: %w", err)
	}

	infos := []Info{}
	for _, path := range matches {
		stat, err := os.Stat(path)
		if err != nil {
			continue
		}

		accounts := -1
		if manifest, err := ReadManifest(path); err == nil {
			accounts = len(manifest.Accounts)
		}

		infos = append(infos, Info{
			Path:     path,
			Size:     stat.Size(),
			ModTime:  stat.ModTime(),
			Accounts: accounts,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ModTime.After(infos[j].ModTime)
	})
	return infos, nil
}

// ReadManifest extracts and decodes the manifest from an archive.
func ReadManifest(archivePath string) (*Manifest, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading gzip: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar: %w", err)
		}
		if hdr.Name != manifestName {
			continue
		}

		var manifest Manifest
		if err := json.NewDecoder(tr).Decode(&manifest); err != nil {
			return nil, fmt.Errorf("decoding manifest: %w", err)
		}
		return &manifest, nil
	}

	return nil, fmt.Errorf("archive has no %s", manifestName)
}

// Restore extracts an archive back into the data and SSH directories,
// restoring permission bits (0600 private keys and config, 0644 public
// keys). The current data directory is replaced wholesale; when one exists,
// a pre-restore safety backup is taken first.
func (m *Manager) Restore(archivePath string) error {
	if _, err := os.Stat(archivePath); err != nil {
		return fmt.Errorf("backup archive not found: %w", err)
	}

	if _, err := os.Stat(m.dataDir); err == nil {
		safety := "pre-restore-" + time.Now().Format("20060102_150405")
		if path, err := m.Create(safety); err != nil {
			m.logger.Warn("pre-restore backup failed", "error", err)
		} else {
			m.logger.Info("saved pre-restore backup", "path", path)
		}
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("reading gzip: %w", err)
	}
	defer gr.Close()

	replacedData := false
	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		name := filepath.ToSlash(hdr.Name)
		if !validMemberName(name) {
			return fmt.Errorf("archive member %q has an unsafe path", hdr.Name)
		}

		switch {
		case strings.HasPrefix(name, dataPrefix):
			if !replacedData {
				if err := os.RemoveAll(m.dataDir); err != nil {
					return fmt.Errorf("removing data directory: %w", err)
				}
				replacedData = true
			}
			dest := filepath.Join(m.dataDir, strings.TrimPrefix(name, dataPrefix))
			if err := extractFile(tr, dest, 0o644); err != nil {
				return fmt.Errorf("restoring %s: %w", name, err)
			}

		case strings.HasPrefix(name, keysPrefix):
			keyName := strings.TrimPrefix(name, keysPrefix)
			mode := os.FileMode(0o600)
			if strings.HasSuffix(keyName, ".pub") {
				mode = 0o644
			}
			if err := os.MkdirAll(m.sshDir, 0o700); err != nil {
				return fmt.Errorf("creating ssh directory: %w", err)
			}
			if err := extractFile(tr, filepath.Join(m.sshDir, keyName), mode); err != nil {
				return fmt.Errorf("restoring key %s: %w", keyName, err)
			}

		case name == sshConfigMember:
			if err := os.MkdirAll(m.sshDir, 0o700); err != nil {
				return fmt.Errorf("creating ssh directory: %w", err)
			}
			if err := extractFile(tr, filepath.Join(m.sshDir, "config"), 0o600); err != nil {
				return fmt.Errorf("restoring ssh config: %w", err)
			}
		}
	}

	m.logger.Info("restored backup", "path", archivePath)
	return nil
}

// Cleanup removes old archives, keeping the most recent keep. Returns the
// paths of the removed archives.
func (m *Manager) Cleanup(keep int) ([]string, error) {
	infos, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(infos) <= keep {
		return nil, nil
	}

	removed := []string{}
	for _, info := range infos[keep:] {
		if err := os.Remove(info.Path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", info.Path, err)
		}
		removed = append(removed, info.Path)
	}

	m.logger.Info("cleaned up backups", "removed", len(removed), "kept", keep)
	return removed, nil
}

// validMemberName rejects absolute paths and parent-directory traversal.
func validMemberName(name string) bool {
	if strings.HasPrefix(name, "/") {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

func addFile(tw *tar.Writer, path, arcname string, info os.FileInfo) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = arcname

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

func writeTarFile(tw *tar.Writer, arcname string, data []byte, mode os.FileMode) error {
	hdr := &tar.Header{
		Name:    arcname,
		Mode:    int64(mode),
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

func extractFile(tr *tar.Reader, dest string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, tr); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chmod(dest, mode)
}
