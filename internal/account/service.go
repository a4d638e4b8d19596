// ABOUTME: Activation workflow orchestrating the profile store and identity applier
// ABOUTME: Persists the active flag first, then applies git/ssh side effects

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/git-hyper/git-hyper/internal/store"
)

// Applier projects a profile onto the host's Git and SSH configuration.
type Applier interface {
	Apply(ctx context.Context, p *store.Profile) error
}

// Result is the outcome of an activation or creation.
//
// ApplyErr reports a failed environment apply while the persisted state has
// already committed. In that case the store's active flag and the host's
// actual Git/SSH configuration diverge until the next successful switch.
// The original behaved this way (best-effort side effects after commit) and
// the asymmetry is kept deliberately; callers surface ApplyErr to the user
// instead of rolling back.
type Result struct {
	Profile  *store.Profile
	ApplyErr error
}

// Service runs the activation workflow: validate, persist, apply.
type Service struct {
	store   store.Store
	applier Applier
	logger  *slog.Logger
}

// NewService creates a Service over the given store and applier.
func NewService(st store.Store, applier Applier) *Service {
	return &Service{
		store:   st,
		applier: applier,
		logger:  slog.Default().With("component", "account"),
	}
}

// Activate marks the profile with the given id active and applies its
// identity to the environment. An unknown id fails before anything is
// mutated. A storage failure fails after nothing has been applied. An apply
// failure is reported in Result.ApplyErr; the activation itself still
// succeeded.
func (s *Service) Activate(ctx context.Context, id int64) (*Result, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("looking up profile %d: %w", id, err)
	}

	if err := s.store.Activate(ctx, id); err != nil {
		return nil, fmt.Errorf("activating profile %d: %w", id, err)
	}
	p.Active = true

	res := &Result{Profile: p}
	if err := s.applier.Apply(ctx, p); err != nil {
		s.logger.Warn("identity apply failed after activation committed",
			"id", id, "error", err)
		res.ApplyErr = err
	} else {
		s.logger.Info("activated profile", "id", id, "email", p.Email)
	}

	return res, nil
}

// Create inserts a new active profile (the store validates input and
// enforces email uniqueness) and applies its identity, with the same
// best-effort apply semantics as Activate.
func (s *Service) Create(ctx context.Context, name, email, keyPath string) (*Result, error) {
	id, err := s.store.Create(ctx, name, email, keyPath)
	if err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	p := &store.Profile{ID: id, Name: name, Email: email, KeyPath: keyPath, Active: true}

	res := &Result{Profile: p}
	if err := s.applier.Apply(ctx, p); err != nil {
		s.logger.Warn("identity apply failed after create committed",
			"id", id, "error", err)
		res.ApplyErr = err
	} else {
		s.logger.Info("created profile", "id", id, "email", email)
	}

	return res, nil
}

// Current returns the active profile, or store.ErrNotFound when none is.
func (s *Service) Current(ctx context.Context) (*store.Profile, error) {
	return s.store.GetActive(ctx)
}

// List returns all profiles in listing order (active first, then by name).
func (s *Service) List(ctx context.Context) ([]*store.Profile, error) {
	return s.store.ListAll(ctx)
}

// Get returns a profile by id.
func (s *Service) Get(ctx context.Context, id int64) (*store.Profile, error) {
	return s.store.GetByID(ctx, id)
}

// Update edits a profile in place without touching the active flag. It does
// not re-apply the environment; the user switches explicitly.
func (s *Service) Update(ctx context.Context, id int64, name, email, keyPath string) error {
	return s.store.Update(ctx, id, name, email, keyPath)
}

// Delete removes a profile. Deleting the active profile leaves no active
// profile; the environment keeps whatever identity was last applied.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}
