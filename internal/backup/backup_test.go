// ABOUTME: Tests for backup archive creation, listing, restore, and cleanup
// ABOUTME: Builds real data/ssh fixtures in temp dirs and round-trips archives

package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git-hyper/git-hyper/internal/identity"
	"github.com/git-hyper/git-hyper/internal/store"
)

// setupFixture creates a data dir with a populated database, two SSH keys,
// and a managed SSH config.
func setupFixture(t *testing.T) (dataDir, sshDir, backupDir string) {
	t.Helper()
	root := t.TempDir()
	dataDir = filepath.Join(root, ".git-hyper")
	sshDir = filepath.Join(root, ".ssh")
	backupDir = filepath.Join(root, ".git-hyper-backups")

	st, err := store.NewSQLiteStore(filepath.Join(dataDir, "database.db"))
	require.NoError(t, err)
	ctx := context.Background()
	_, err = st.Create(ctx, "Alice", "alice@x.com", filepath.Join(sshDir, "git-login-alice"))
	require.NoError(t, err)
	_, err = st.Create(ctx, "Bob", "bob@x.com", filepath.Join(sshDir, "git-login-bob"))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	require.NoError(t, os.MkdirAll(sshDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(sshDir, "git-login-alice"), []byte("private-a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(sshDir, "git-login-alice.pub"), []byte("public-a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sshDir, "config"),
		[]byte(identity.ConfigMarker+"\nHost github.com\n"), 0o600))
	// A key not owned by the tool must not be archived.
	require.NoError(t, os.WriteFile(filepath.Join(sshDir, "id_rsa"), []byte("other"), 0o600))

	return dataDir, sshDir, backupDir
}

func TestManager_Create_And_ReadManifest(t *testing.T) {
	dataDir, sshDir, backupDir := setupFixture(t)
	m := NewManager(dataDir, sshDir, backupDir)

	path, err := m.Create("")
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Contains(t, filepath.Base(path), ArchivePrefix)

	manifest, err := ReadManifest(path)
	require.NoError(t, err)
	assert.NotEmpty(t, manifest.BackupID)
	assert.Equal(t, "1.0", manifest.Version)
	assert.WithinDuration(t, time.Now(), manifest.BackupDate, time.Minute)

	require.Len(t, manifest.Accounts, 2)
	// Listing order: active (Bob, created last) first.
	assert.Equal(t, "Bob", manifest.Accounts[0].Name)
	assert.True(t, manifest.Accounts[0].Active)
	assert.Equal(t, "Alice", manifest.Accounts[1].Name)
	assert.False(t, manifest.Accounts[1].Active)
}

func TestManager_Create_MissingDataDir(t *testing.T) {
	root := t.TempDir()
	m := NewManager(filepath.Join(root, "nope"), root, root)

	_, err := m.Create("")
	assert.Error(t, err)
}

func TestManager_Create_SkipsForeignSSHConfig(t *testing.T) {
	dataDir, sshDir, backupDir := setupFixture(t)
	// Replace the managed config with a hand-written one.
	require.NoError(t, os.WriteFile(filepath.Join(sshDir, "config"),
		[]byte("Host example.com\n    User me\n"), 0o600))

	m := NewManager(dataDir, sshDir, backupDir)
	path, err := m.Create("git-hyper-backup-noconfig")
	require.NoError(t, err)

	// Restore into fresh dirs; the foreign config must not come back.
	restoreRoot := t.TempDir()
	m2 := NewManager(filepath.Join(restoreRoot, "data"), filepath.Join(restoreRoot, "ssh"), backupDir)
	require.NoError(t, m2.Restore(path))
	assert.NoFileExists(t, filepath.Join(restoreRoot, "ssh", "config"))
}

func TestManager_Restore_RoundTrip(t *testing.T) {
	dataDir, sshDir, backupDir := setupFixture(t)
	m := NewManager(dataDir, sshDir, backupDir)

	path, err := m.Create("git-hyper-backup-roundtrip")
	require.NoError(t, err)

	restoreRoot := t.TempDir()
	newData := filepath.Join(restoreRoot, ".git-hyper")
	newSSH := filepath.Join(restoreRoot, ".ssh")
	m2 := NewManager(newData, newSSH, backupDir)
	require.NoError(t, m2.Restore(path))

	// Database restored and readable.
	st, err := store.NewSQLiteStore(filepath.Join(newData, "database.db"))
	require.NoError(t, err)
	defer st.Close()
	profiles, err := st.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, profiles, 2)

	// Keys restored with the right permission bits.
	keyInfo, err := os.Stat(filepath.Join(newSSH, "git-login-alice"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), keyInfo.Mode().Perm())

	pubInfo, err := os.Stat(filepath.Join(newSSH, "git-login-alice.pub"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), pubInfo.Mode().Perm())

	// SSH config restored 0600.
	cfgInfo, err := os.Stat(filepath.Join(newSSH, "config"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), cfgInfo.Mode().Perm())

	// Foreign key was never archived.
	assert.NoFileExists(t, filepath.Join(newSSH, "id_rsa"))
}

func TestManager_List_NewestFirst(t *testing.T) {
	dataDir, sshDir, backupDir := setupFixture(t)
	m := NewManager(dataDir, sshDir, backupDir)

	older, err := m.Create("git-hyper-backup-older")
	require.NoError(t, err)
	// Distinct mtimes without sleeping.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	newer, err := m.Create("git-hyper-backup-newer")
	require.NoError(t, err)

	infos, err := m.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, newer, infos[0].Path)
	assert.Equal(t, older, infos[1].Path)
	assert.Equal(t, 2, infos[0].Accounts)
	assert.Greater(t, infos[0].Size, int64(0))
}

func TestManager_Cleanup(t *testing.T) {
	dataDir, sshDir, backupDir := setupFixture(t)
	m := NewManager(dataDir, sshDir, backupDir)

	var paths []string
	for i, name := range []string{"git-hyper-backup-a", "git-hyper-backup-b", "git-hyper-backup-c"} {
		p, err := m.Create(name)
		require.NoError(t, err)
		ts := time.Now().Add(-time.Duration(10-i) * time.Minute)
		require.NoError(t, os.Chtimes(p, ts, ts))
		paths = append(paths, p)
	}

	removed, err := m.Cleanup(2)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, paths[0], removed[0], "the oldest archive is removed")

	infos, err := m.List()
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestManager_Cleanup_UnderLimit(t *testing.T) {
	dataDir, sshDir, backupDir := setupFixture(t)
	m := NewManager(dataDir, sshDir, backupDir)

	_, err := m.Create("")
	require.NoError(t, err)

	removed, err := m.Cleanup(5)
	require.NoError(t, err)
	assert.Empty(t, removed)
}
