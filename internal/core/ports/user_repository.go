package ports

import (
	"context"
	"time"

	"github.com/comanda/account-service/internal/core/domain"
)

// UserChanges lists the fields to overwrite on a stored user. Nil pointers are
// left untouched.
type UserChanges struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *domain.Role
	UpdatedAt    time.Time
}

// UserRepository defines the persistence operations for user records.
// Lookups return domain.ErrUserNotFound on absence, and a unique-email
// violation is reported as domain.ErrDuplicateEmail.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// ListByRole returns users of role ordered by creation time.
	ListByRole(ctx context.Context, role domain.Role, onlyActive bool) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, id string, changes UserChanges) (*domain.User, error)
	SetActive(ctx context.Context, id string, active bool, at time.Time) (*domain.User, error)
	// Delete removes the record and returns it as it was before deletion.
	Delete(ctx context.Context, id string) (*domain.User, error)
}
