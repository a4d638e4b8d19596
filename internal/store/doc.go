// Package store provides persistent storage for git-hyper profiles using SQLite.
//
// # Data Model
//
// A single table holds Profile records:
//
//	CREATE TABLE accounts (
//	    id           INTEGER PRIMARY KEY AUTOINCREMENT,
//	    name         TEXT NOT NULL,
//	    email        TEXT NOT NULL UNIQUE,
//	    ssh_key_path TEXT NOT NULL,
//	    active       INTEGER NOT NULL DEFAULT 0
//	);
//
// At most one profile is active at rest. Create and Activate both perform
// the deactivate-all/activate-one pair inside a single transaction so an
// interrupted operation can never leave two profiles active.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: requested profile does not exist
//   - ErrDuplicateEmail: the email UNIQUE constraint was violated
//   - ErrInvalidInput: empty name/email or email without '@'
//
// Any other error is an underlying storage failure, wrapped with context.
// All methods accept context.Context.
//
// # Testing
//
// Use NewSQLiteStore with a path under t.TempDir() for tests; the schema is
// created on open.
package store
