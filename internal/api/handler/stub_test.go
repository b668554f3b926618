package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/comanda/account-service/internal/api/middleware"
	"github.com/comanda/account-service/internal/core/domain"
	"github.com/comanda/account-service/internal/core/ports"
)

var cashier = domain.Identity{UserID: "cashier-1", Name: "Carla", Email: "carla@x.com", Role: domain.RoleCashier}

// stubAuthService implements ports.AuthService. Unset functions panic so a
// test fails loudly when an unexpected call is made.
type stubAuthService struct {
	authenticateFn func(ctx context.Context, email, password string) (*domain.Identity, error)
	registerFn     func(ctx context.Context, name, email, password string) (*domain.User, error)
	startFn        func(ctx context.Context, identity domain.Identity) (*domain.Session, string, error)
	resolveFn      func(ctx context.Context, token string) (*domain.Identity, error)
	endFn          func(ctx context.Context, token string) bool
	listFn         func(ctx context.Context, caller domain.Identity) (*domain.ManagedUsers, error)
	customersFn    func(ctx context.Context, caller domain.Identity) ([]*domain.User, error)
	createFn       func(ctx context.Context, caller domain.Identity, in ports.NewUserInput) (*domain.User, error)
	updateFn       func(ctx context.Context, caller domain.Identity, id string, in ports.UserUpdate) (*domain.User, error)
	deactivateFn   func(ctx context.Context, caller domain.Identity, id string) (*domain.User, error)
	activateFn     func(ctx context.Context, caller domain.Identity, id string) (*domain.User, error)
	removeFn       func(ctx context.Context, caller domain.Identity, id string) (*domain.RemovalConfirmation, error)
}

func (s *stubAuthService) Authenticate(ctx context.Context, email, password string) (*domain.Identity, error) {
	return s.authenticateFn(ctx, email, password)
}

func (s *stubAuthService) RegisterCustomer(ctx context.Context, name, email, password string) (*domain.User, error) {
	return s.registerFn(ctx, name, email, password)
}

func (s *stubAuthService) StartSession(ctx context.Context, identity domain.Identity) (*domain.Session, string, error) {
	return s.startFn(ctx, identity)
}

func (s *stubAuthService) ResolveSession(ctx context.Context, token string) (*domain.Identity, error) {
	return s.resolveFn(ctx, token)
}

func (s *stubAuthService) EndSession(ctx context.Context, token string) bool {
	return s.endFn(ctx, token)
}

func (s *stubAuthService) ListManageable(ctx context.Context, caller domain.Identity) (*domain.ManagedUsers, error) {
	return s.listFn(ctx, caller)
}

func (s *stubAuthService) ListActiveCustomers(ctx context.Context, caller domain.Identity) ([]*domain.User, error) {
	return s.customersFn(ctx, caller)
}

func (s *stubAuthService) CreateManagedUser(ctx context.Context, caller domain.Identity, in ports.NewUserInput) (*domain.User, error) {
	return s.createFn(ctx, caller, in)
}

func (s *stubAuthService) UpdateManagedUser(ctx context.Context, caller domain.Identity, id string, in ports.UserUpdate) (*domain.User, error) {
	return s.updateFn(ctx, caller, id, in)
}

func (s *stubAuthService) DeactivateUser(ctx context.Context, caller domain.Identity, id string) (*domain.User, error) {
	return s.deactivateFn(ctx, caller, id)
}

func (s *stubAuthService) ActivateUser(ctx context.Context, caller domain.Identity, id string) (*domain.User, error) {
	return s.activateFn(ctx, caller, id)
}

func (s *stubAuthService) RemoveUser(ctx context.Context, caller domain.Identity, id string) (*domain.RemovalConfirmation, error) {
	return s.removeFn(ctx, caller, id)
}

// newContext builds an echo context with the validator registered. A non-nil
// identity is injected the way the Session middleware does it.
func newContext(method, target, body string, identity *domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if identity != nil {
		c.Set(middleware.IdentityKey, *identity)
	}
	return c, rec
}

func statusOf(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return http.StatusInternalServerError
}

func testSession(identity domain.Identity) *domain.Session {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Session{ID: "sid-1", Identity: identity, IssuedAt: now, ExpiresAt: now.Add(12 * time.Hour)}
}
