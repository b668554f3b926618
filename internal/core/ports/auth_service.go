package ports

import (
	"context"

	"github.com/comanda/account-service/internal/core/domain"
)

// AuthService authenticates credentials, manages session bindings and gates
// account management behind the cashier role. Management calls take the
// caller explicitly.
type AuthService interface {
	Authenticate(ctx context.Context, email, password string) (*domain.Identity, error)
	RegisterCustomer(ctx context.Context, name, email, password string) (*domain.User, error)

	StartSession(ctx context.Context, identity domain.Identity) (*domain.Session, string, error)
	ResolveSession(ctx context.Context, token string) (*domain.Identity, error)
	EndSession(ctx context.Context, token string) bool

	ListManageable(ctx context.Context, caller domain.Identity) (*domain.ManagedUsers, error)
	ListActiveCustomers(ctx context.Context, caller domain.Identity) ([]*domain.User, error)
	CreateManagedUser(ctx context.Context, caller domain.Identity, in NewUserInput) (*domain.User, error)
	UpdateManagedUser(ctx context.Context, caller domain.Identity, id string, in UserUpdate) (*domain.User, error)
	DeactivateUser(ctx context.Context, caller domain.Identity, id string) (*domain.User, error)
	ActivateUser(ctx context.Context, caller domain.Identity, id string) (*domain.User, error)
	RemoveUser(ctx context.Context, caller domain.Identity, id string) (*domain.RemovalConfirmation, error)
}
