// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides profile persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL keeps readers from blocking the occasional write
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the accounts table if it doesn't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS accounts (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			name         TEXT NOT NULL,
			email        TEXT NOT NULL UNIQUE,
			ssh_key_path TEXT NOT NULL,
			active       INTEGER NOT NULL DEFAULT 0
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation.
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// validateProfileInput checks user-supplied fields before any write happens.
func validateProfileInput(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email must not be empty", ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email %q lacks '@'", ErrInvalidInput, email)
	}
	return nil
}

// Create deactivates all profiles and inserts a new active one in a single
// transaction. If the insert fails (duplicate email), the rollback also
// undoes the deactivation, leaving the store untouched.
func (s *SQLiteStore) Create(ctx context.Context, name, email, keyPath string) (int64, error) {
	if err := validateProfileInput(name, email); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET active = 0`); err != nil {
		return 0, fmt.Errorf("deactivating profiles: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (name, email, ssh_key_path, active)
		VALUES (?, ?, ?, 1)
	`, name, email, keyPath)
	if err != nil {
		if isConstraintViolation(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("inserting profile: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing create: %w", err)
	}

	s.logger.Debug("created profile", "id", id, "email", email)
	return id, nil
}

// ListAll returns every profile ordered active-first, then by name ascending.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]*Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, ssh_key_path, active
		FROM accounts
		ORDER BY active DESC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	profiles := []*Profile{}
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.KeyPath, &p.Active); err != nil {
			return nil, fmt.Errorf("scanning profile row: %w", err)
		}
		profiles = append(profiles, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profile rows: %w", err)
	}

	return profiles, nil
}

// GetActive returns the active profile, or ErrNotFound when no profile is
// active. Should more than one row be active, the first in listing order
// wins; the extra rows are left alone.
func (s *SQLiteStore) GetActive(ctx context.Context) (*Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, ssh_key_path, active
		FROM accounts
		WHERE active = 1
		ORDER BY name ASC
		LIMIT 1
	`).Scan(&p.ID, &p.Name, &p.Email, &p.KeyPath, &p.Active)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying active profile: %w", err)
	}

	return &p, nil
}

// GetByID retrieves a profile by id. Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, ssh_key_path, active
		FROM accounts
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Email, &p.KeyPath, &p.Active)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	return &p, nil
}

// Update changes name, email, and optionally the key path. An empty keyPath
// keeps the stored one. The active flag is never modified here.
func (s *SQLiteStore) Update(ctx context.Context, id int64, name, email, keyPath string) error {
	if err := validateProfileInput(name, email); err != nil {
		return err
	}

	var result sql.Result
	var err error
	if keyPath != "" {
		result, err = s.db.ExecContext(ctx, `
			UPDATE accounts
			SET name = ?, email = ?, ssh_key_path = ?
			WHERE id = ?
		`, name, email, keyPath, id)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE accounts
			SET name = ?, email = ?
			WHERE id = ?
		`, name, email, id)
	}
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("updating profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("updated profile", "id", id)
	return nil
}

// Delete removes a profile by id. Returns ErrNotFound for an unknown id.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted profile", "id", id)
	return nil
}

// Activate deactivates all profiles and activates the one with the given id.
// Both statements run in one transaction: an unknown id rolls back the
// deactivation, so the previously active profile stays active.
func (s *SQLiteStore) Activate(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET active = 0`); err != nil {
		return fmt.Errorf("deactivating profiles: %w", err)
	}

	result, err := tx.ExecContext(ctx, `UPDATE accounts SET active = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("activating profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing activation: %w", err)
	}

	s.logger.Debug("activated profile", "id", id)
	return nil
}
