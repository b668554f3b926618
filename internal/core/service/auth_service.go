package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/comanda/account-service/internal/core/domain"
	"github.com/comanda/account-service/internal/core/ports"
)

// AuthService authenticates users, tracks their sessions and gates account
// management behind the cashier role. Policy checks run before the store is
// touched.
type AuthService struct {
	store    ports.CredentialStore
	sessions *SessionManager
	logger   zerolog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(store ports.CredentialStore, sessions *SessionManager, logger zerolog.Logger) *AuthService {
	return &AuthService{store: store, sessions: sessions, logger: logger}
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords fail with the same ErrInvalidCredentials. The active flag is not
// consulted: deactivated accounts can still sign in.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.Identity, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !s.store.CheckPassword(user, password) {
		return nil, domain.ErrInvalidCredentials
	}

	identity := user.Identity()
	return &identity, nil
}

// RegisterCustomer is self-service sign-up; the role is always customer.
func (s *AuthService) RegisterCustomer(ctx context.Context, name, email, password string) (*domain.User, error) {
	return s.store.Create(ctx, ports.NewUserInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     domain.RoleCustomer,
	})
}

func (s *AuthService) StartSession(ctx context.Context, identity domain.Identity) (*domain.Session, string, error) {
	session, token, err := s.sessions.Start(ctx, identity)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info().Str("user_id", identity.UserID).Str("role", string(identity.Role)).Msg("session started")
	return session, token, nil
}

// ResolveSession returns the caller bound to token. The user is reloaded so
// role changes apply at once and removed users lose their sessions.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*domain.Identity, error) {
	session, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindByID(ctx, session.Identity.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.EndSession(ctx, token)
		return nil, domain.ErrUnauthenticated
	}

	identity := user.Identity()
	return &identity, nil
}

// EndSession drops the binding for token and reports whether a live session
// was ended. It never fails; store errors are logged and the session expires
// on its own.
func (s *AuthService) EndSession(ctx context.Context, token string) bool {
	ended, err := s.sessions.End(ctx, token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete session")
		return false
	}
	if ended {
		s.logger.Debug().Msg("session ended")
	}
	return ended
}

// ListManageable returns every customer and attendant, active or not.
func (s *AuthService) ListManageable(ctx context.Context, caller domain.Identity) (*domain.ManagedUsers, error) {
	if err := requireCashier(caller); err != nil {
		return nil, err
	}

	customers, err := s.store.ListByRole(ctx, domain.RoleCustomer, false)
	if err != nil {
		return nil, err
	}
	attendants, err := s.store.ListByRole(ctx, domain.RoleAttendant, false)
	if err != nil {
		return nil, err
	}
	return &domain.ManagedUsers{Customers: customers, Attendants: attendants}, nil
}

// ListActiveCustomers returns active customers for order taking. Attendants
// and cashiers may call it.
func (s *AuthService) ListActiveCustomers(ctx context.Context, caller domain.Identity) ([]*domain.User, error) {
	if !caller.IsAttendant() && !caller.IsCashier() {
		return nil, domain.ErrForbidden
	}
	return s.store.ListByRole(ctx, domain.RoleCustomer, true)
}

func (s *AuthService) CreateManagedUser(ctx context.Context, caller domain.Identity, in ports.NewUserInput) (*domain.User, error) {
	if err := requireCashier(caller); err != nil {
		return nil, err
	}
	if !in.Role.Manageable() {
		return nil, domain.ErrInvalidRole
	}
	return s.store.Create(ctx, in)
}

func (s *AuthService) UpdateManagedUser(ctx context.Context, caller domain.Identity, id string, in ports.UserUpdate) (*domain.User, error) {
	if err := requireCashier(caller); err != nil {
		return nil, err
	}
	if in.Role != "" && !in.Role.Manageable() {
		return nil, domain.ErrInvalidRole
	}
	return s.store.Update(ctx, id, in)
}

func (s *AuthService) DeactivateUser(ctx context.Context, caller domain.Identity, id string) (*domain.User, error) {
	if err := requireCashier(caller); err != nil {
		return nil, err
	}
	if isSelf(caller, id) {
		return nil, domain.ErrSelfActionForbidden
	}
	return s.store.SetActive(ctx, id, false)
}

func (s *AuthService) ActivateUser(ctx context.Context, caller domain.Identity, id string) (*domain.User, error) {
	if err := requireCashier(caller); err != nil {
		return nil, err
	}
	return s.store.SetActive(ctx, id, true)
}

// RemoveUser permanently deletes an account. Unlike deactivation this cannot
// be undone.
func (s *AuthService) RemoveUser(ctx context.Context, caller domain.Identity, id string) (*domain.RemovalConfirmation, error) {
	if err := requireCashier(caller); err != nil {
		return nil, err
	}
	if isSelf(caller, id) {
		return nil, domain.ErrSelfActionForbidden
	}
	return s.store.Remove(ctx, id)
}

// isSelf reports whether id names the caller. Ids are hex strings that the
// store resolves case-insensitively, so the comparison is too.
func isSelf(caller domain.Identity, id string) bool {
	return strings.EqualFold(strings.TrimSpace(id), caller.UserID)
}

func requireCashier(caller domain.Identity) error {
	if !caller.IsCashier() {
		return domain.ErrForbidden
	}
	return nil
}
