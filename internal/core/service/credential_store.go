package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/comanda/account-service/internal/core/domain"
	"github.com/comanda/account-service/internal/core/ports"
)

// CredentialStore owns user records: it hashes passwords, enforces email
// uniqueness and applies partial updates on top of a ports.UserRepository.
type CredentialStore struct {
	repo   ports.UserRepository
	hasher *passwordHasher
	logger zerolog.Logger
	now    func() time.Time
}

var _ ports.CredentialStore = (*CredentialStore)(nil)

func NewCredentialStore(repo ports.UserRepository, bcryptCost int, logger zerolog.Logger) *CredentialStore {
	return &CredentialStore{
		repo:   repo,
		hasher: newPasswordHasher(bcryptCost),
		logger: logger,
		now:    time.Now,
	}
}

// FindByEmail returns the user owning email, or nil when there is none.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return optional(s.repo.FindByEmail(ctx, email))
}

// FindByID returns the user with id, or nil when there is none.
func (s *CredentialStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return optional(s.repo.FindByID(ctx, id))
}

func (s *CredentialStore) ListByRole(ctx context.Context, role domain.Role, onlyActive bool) ([]*domain.User, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	users, err := s.repo.ListByRole(ctx, role, onlyActive)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

// Create hashes the password and persists a new active user. The repository's
// unique index still decides a race between two creations of the same email.
func (s *CredentialStore) Create(ctx context.Context, in ports.NewUserInput) (*domain.User, error) {
	if strings.TrimSpace(in.Name) == "" || in.Email == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	existing, err := s.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateEmail
	}

	hash, err := s.hasher.hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, storeErr("create user", err)
	}

	s.logger.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user created")
	return created, nil
}

// Update applies the non-empty fields of in. A blank name counts as empty,
// as it does for Create. An empty update returns the stored record without
// writing.
func (s *CredentialStore) Update(ctx context.Context, id string, in ports.UserUpdate) (*domain.User, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find user", err)
	}
	if strings.TrimSpace(in.Name) == "" {
		in.Name = ""
	}
	if in.IsEmpty() {
		return current, nil
	}
	if in.Role != "" && !in.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	changes := ports.UserChanges{UpdatedAt: s.now().UTC()}
	if in.Name != "" {
		changes.Name = &in.Name
	}
	if in.Email != "" && in.Email != current.Email {
		owner, err := s.FindByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if owner != nil && owner.ID != current.ID {
			return nil, domain.ErrDuplicateEmail
		}
		changes.Email = &in.Email
	}
	if in.Password != "" {
		hash, err := s.hasher.hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		changes.PasswordHash = &hash
	}
	if in.Role != "" {
		changes.Role = &in.Role
	}

	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return nil, storeErr("update user", err)
	}

	s.logger.Info().
		Str("user_id", id).
		Bool("email_changed", changes.Email != nil).
		Bool("password_changed", changes.PasswordHash != nil).
		Bool("role_changed", changes.Role != nil).
		Msg("user updated")
	return updated, nil
}

// SetActive toggles the account-enablement flag. Setting the current value
// succeeds.
func (s *CredentialStore) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	user, err := s.repo.SetActive(ctx, id, active, s.now().UTC())
	if err != nil {
		return nil, storeErr("set active", err)
	}
	s.logger.Info().Str("user_id", id).Bool("active", active).Msg("user activation changed")
	return user, nil
}

// Remove permanently deletes the user. Orders owned by the user are left
// alone.
func (s *CredentialStore) Remove(ctx context.Context, id string) (*domain.RemovalConfirmation, error) {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, storeErr("remove user", err)
	}
	s.logger.Info().Str("user_id", id).Str("role", string(removed.Role)).Msg("user removed")
	return &domain.RemovalConfirmation{
		ID:        removed.ID,
		Name:      removed.Name,
		RemovedAt: s.now().UTC(),
	}, nil
}

// CheckPassword reports whether password matches the user's stored hash.
// A nil user never matches but still pays for one bcrypt comparison.
func (s *CredentialStore) CheckPassword(user *domain.User, password string) bool {
	if user == nil {
		s.hasher.burn(password)
		return false
	}
	return s.hasher.matches(user.PasswordHash, password)
}

func optional(user *domain.User, err error) (*domain.User, error) {
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find user", err)
	}
	return user, nil
}

// storeErr passes domain errors through and tags anything else as a
// persistence failure.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrPersistence):
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}
