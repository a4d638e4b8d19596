// ABOUTME: Store interface and data types for git-hyper persistence
// ABOUTME: Defines the Profile struct and the Store interface for account operations

package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested profile does not exist.
var ErrNotFound = errors.New("profile not found")

// ErrDuplicateEmail is returned when creating or updating a profile with an
// email that another profile already uses.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrInvalidInput is returned when a profile field fails validation before
// any write is attempted.
var ErrInvalidInput = errors.New("invalid profile input")

// Profile represents a stored Git/GitHub identity: the name and email that
// go into the global Git config, plus the SSH key used for github.com.
// Exactly one profile is active at rest; the active profile is the one
// whose identity is currently applied to the host.
type Profile struct {
	ID      int64
	Name    string
	Email   string
	KeyPath string
	Active  bool
}

// Store defines the interface for profile persistence.
//
// Writes that touch the active flag (Create, Activate) run inside a single
// transaction so the deactivate-all/activate-one pair can never be observed
// half done.
type Store interface {
	// Create deactivates every existing profile and inserts a new active
	// one, returning the assigned id. The new account always becomes the
	// current account. Returns ErrInvalidInput for an empty name, an empty
	// email, or an email without '@'; ErrDuplicateEmail leaves the store
	// exactly as it was, including the previously active profile.
	Create(ctx context.Context, name, email, keyPath string) (int64, error)

	// ListAll returns every profile ordered active-first, then by name.
	// An empty store yields an empty slice.
	ListAll(ctx context.Context) ([]*Profile, error)

	// GetActive returns the active profile, or ErrNotFound if no profile
	// is active. If more than one row is active (corrupted store) the
	// first in listing order is returned; the store does not repair it.
	GetActive(ctx context.Context) (*Profile, error)

	// GetByID returns the profile with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*Profile, error)

	// Update changes name, email and optionally the key path of a profile.
	// An empty keyPath retains the existing path. The active flag is never
	// touched. Returns ErrDuplicateEmail or ErrNotFound.
	Update(ctx context.Context, id int64, name, email, keyPath string) error

	// Delete removes a profile by id. Returns ErrNotFound if the id does
	// not exist. Deleting the active profile leaves zero active profiles;
	// the store does not pick a successor.
	Delete(ctx context.Context, id int64) error

	// Activate deactivates all profiles and activates the one with the
	// given id, in one transaction. If the id does not exist the
	// transaction is rolled back and the previously active profile stays
	// active; ErrNotFound is returned.
	Activate(ctx context.Context, id int64) error

	// Close releases any resources held by the store.
	Close() error
}
