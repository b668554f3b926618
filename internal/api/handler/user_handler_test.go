package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/comanda/account-service/internal/core/domain"
	"github.com/comanda/account-service/internal/core/ports"
)

func TestUserHandler_List(t *testing.T) {
	stub := &stubAuthService{
		listFn: func(ctx context.Context, caller domain.Identity) (*domain.ManagedUsers, error) {
			if caller != cashier {
				t.Fatalf("caller not relayed: %+v", caller)
			}
			return &domain.ManagedUsers{
				Customers:  []*domain.User{{ID: "c1", Role: domain.RoleCustomer}},
				Attendants: []*domain.User{{ID: "a1", Role: domain.RoleAttendant, Active: false}},
			}, nil
		},
	}
	handler := NewUserHandler(stub)

	c, rec := newContext(http.MethodGet, "/users", "", &cashier)
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp domain.ManagedUsers
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Customers) != 1 || len(resp.Attendants) != 1 || resp.Attendants[0].ID != "a1" {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
}

func TestUserHandler_List_Forbidden(t *testing.T) {
	attendant := domain.Identity{UserID: "a1", Role: domain.RoleAttendant}
	stub := &stubAuthService{
		listFn: func(ctx context.Context, caller domain.Identity) (*domain.ManagedUsers, error) {
			return nil, domain.ErrForbidden
		},
	}
	handler := NewUserHandler(stub)

	c, _ := newContext(http.MethodGet, "/users", "", &attendant)
	if err := handler.List(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUserHandler_ActiveCustomers(t *testing.T) {
	attendant := domain.Identity{UserID: "a1", Name: "Ali", Role: domain.RoleAttendant}
	stub := &stubAuthService{
		customersFn: func(ctx context.Context, caller domain.Identity) ([]*domain.User, error) {
			if caller != attendant {
				t.Fatalf("caller not relayed: %+v", caller)
			}
			return []*domain.User{{ID: "c1", Name: "Ana", Role: domain.RoleCustomer, Active: true}}, nil
		},
	}
	handler := NewUserHandler(stub)

	c, rec := newContext(http.MethodGet, "/customers", "", &attendant)
	if err := handler.ActiveCustomers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp []domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 1 || resp[0].ID != "c1" || !resp[0].Active {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
}

func TestUserHandler_ActiveCustomers_Forbidden(t *testing.T) {
	customer := domain.Identity{UserID: "c1", Role: domain.RoleCustomer}
	stub := &stubAuthService{
		customersFn: func(ctx context.Context, caller domain.Identity) ([]*domain.User, error) {
			return nil, domain.ErrForbidden
		},
	}
	handler := NewUserHandler(stub)

	c, _ := newContext(http.MethodGet, "/customers", "", &customer)
	if err := handler.ActiveCustomers(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUserHandler_Create(t *testing.T) {
	stub := &stubAuthService{
		createFn: func(ctx context.Context, caller domain.Identity, in ports.NewUserInput) (*domain.User, error) {
			if in.Role != domain.RoleAttendant || in.Email != "bo@x.com" || in.Password != "pw" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "a2", Name: in.Name, Email: in.Email, Role: in.Role, Active: true}, nil
		},
	}
	handler := NewUserHandler(stub)

	c, rec := newContext(http.MethodPost, "/users", `{"name":"Bo","email":"bo@x.com","password":"pw","role":"attendant"}`, &cashier)
	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestUserHandler_Create_UnknownRole(t *testing.T) {
	stub := &stubAuthService{
		createFn: func(ctx context.Context, caller domain.Identity, in ports.NewUserInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewUserHandler(stub)

	c, _ := newContext(http.MethodPost, "/users", `{"name":"Bo","email":"bo@x.com","password":"pw","role":"admin"}`, &cashier)
	if err := handler.Create(c); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestUserHandler_Create_CashierRoleRelayed(t *testing.T) {
	stub := &stubAuthService{
		createFn: func(ctx context.Context, caller domain.Identity, in ports.NewUserInput) (*domain.User, error) {
			if in.Role != domain.RoleCashier {
				t.Fatalf("unexpected role %q", in.Role)
			}
			return nil, domain.ErrInvalidRole
		},
	}
	handler := NewUserHandler(stub)

	c, _ := newContext(http.MethodPost, "/users", `{"name":"Bo","email":"bo@x.com","password":"pw","role":"cashier"}`, &cashier)
	if err := handler.Create(c); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestUserHandler_Create_MissingFields(t *testing.T) {
	handler := NewUserHandler(&stubAuthService{})

	c, _ := newContext(http.MethodPost, "/users", `{"name":"Bo","role":"attendant"}`, &cashier)
	if code := statusOf(handler.Create(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestUserHandler_Update_Partial(t *testing.T) {
	stub := &stubAuthService{
		updateFn: func(ctx context.Context, caller domain.Identity, id string, in ports.UserUpdate) (*domain.User, error) {
			if id != "c1" {
				t.Fatalf("unexpected id %q", id)
			}
			if in.Name != "Ana Maria" || in.Password != "" || in.Email != "" || in.Role != "" {
				t.Fatalf("unexpected update: %+v", in)
			}
			return &domain.User{ID: id, Name: in.Name, Role: domain.RoleCustomer}, nil
		},
	}
	handler := NewUserHandler(stub)

	c, rec := newContext(http.MethodPatch, "/users/c1", `{"name":"Ana Maria","password":""}`, &cashier)
	c.SetParamNames("id")
	c.SetParamValues("c1")
	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_Update_Errors(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		stubErr error
		want    error
	}{
		{name: "unknown role", body: `{"role":"owner"}`, want: domain.ErrInvalidRole},
		{name: "not found", body: `{"name":"X"}`, stubErr: domain.ErrUserNotFound, want: domain.ErrUserNotFound},
		{name: "duplicate email", body: `{"email":"taken@x.com"}`, stubErr: domain.ErrDuplicateEmail, want: domain.ErrDuplicateEmail},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubAuthService{
				updateFn: func(ctx context.Context, caller domain.Identity, id string, in ports.UserUpdate) (*domain.User, error) {
					return nil, tc.stubErr
				},
			}
			handler := NewUserHandler(stub)

			c, _ := newContext(http.MethodPatch, "/users/c1", tc.body, &cashier)
			c.SetParamNames("id")
			c.SetParamValues("c1")
			if err := handler.Update(c); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestUserHandler_Deactivate_Self(t *testing.T) {
	stub := &stubAuthService{
		deactivateFn: func(ctx context.Context, caller domain.Identity, id string) (*domain.User, error) {
			if id != caller.UserID {
				t.Fatalf("expected self target, got %q", id)
			}
			return nil, domain.ErrSelfActionForbidden
		},
	}
	handler := NewUserHandler(stub)

	c, _ := newContext(http.MethodPost, "/users/cashier-1/deactivate", "", &cashier)
	c.SetParamNames("id")
	c.SetParamValues("cashier-1")
	if err := handler.Deactivate(c); !errors.Is(err, domain.ErrSelfActionForbidden) {
		t.Fatalf("expected ErrSelfActionForbidden, got %v", err)
	}
}

func TestUserHandler_Activate(t *testing.T) {
	stub := &stubAuthService{
		activateFn: func(ctx context.Context, caller domain.Identity, id string) (*domain.User, error) {
			return &domain.User{ID: id, Role: domain.RoleAttendant, Active: true}, nil
		},
	}
	handler := NewUserHandler(stub)

	c, rec := newContext(http.MethodPost, "/users/a1/activate", "", &cashier)
	c.SetParamNames("id")
	c.SetParamValues("a1")
	if err := handler.Activate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ID != "a1" || !resp.Active {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestUserHandler_Remove(t *testing.T) {
	removedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	stub := &stubAuthService{
		removeFn: func(ctx context.Context, caller domain.Identity, id string) (*domain.RemovalConfirmation, error) {
			return &domain.RemovalConfirmation{ID: id, Name: "Ana", RemovedAt: removedAt}, nil
		},
	}
	handler := NewUserHandler(stub)

	c, rec := newContext(http.MethodDelete, "/users/c1", "", &cashier)
	c.SetParamNames("id")
	c.SetParamValues("c1")
	if err := handler.Remove(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp domain.RemovalConfirmation
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ID != "c1" || !resp.RemovedAt.Equal(removedAt) {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestUserHandler_NoIdentity(t *testing.T) {
	handler := NewUserHandler(&stubAuthService{})

	c, _ := newContext(http.MethodDelete, "/users/c1", "", nil)
	if code := statusOf(handler.Remove(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}
