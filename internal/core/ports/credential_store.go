package ports

import (
	"context"

	"github.com/comanda/account-service/internal/core/domain"
)

// NewUserInput carries the fields required to create an account.
type NewUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// UserUpdate is a partial update. Empty fields mean "leave unchanged",
// including Password: an empty password never replaces the stored hash.
type UserUpdate struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// IsEmpty reports whether the update carries no changes.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == "" && u.Email == "" && u.Password == "" && u.Role == ""
}

// CredentialStore is the sole owner of user persistence. FindByEmail and
// FindByID return (nil, nil) when no user matches.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role, onlyActive bool) ([]*domain.User, error)
	Create(ctx context.Context, in NewUserInput) (*domain.User, error)
	Update(ctx context.Context, id string, in UserUpdate) (*domain.User, error)
	SetActive(ctx context.Context, id string, active bool) (*domain.User, error)
	Remove(ctx context.Context, id string) (*domain.RemovalConfirmation, error)
	CheckPassword(user *domain.User, password string) bool
}
