package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/comanda/account-service/internal/api/metrics"
	"github.com/comanda/account-service/internal/core/domain"
	"github.com/comanda/account-service/internal/core/ports"
)

// UserHandler exposes cashier account management. Role and self-action
// policy is enforced by the AuthService; the handler only relays the caller.
type UserHandler struct {
	authService ports.AuthService
}

func NewUserHandler(authService ports.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

type createUserRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"required"`
}

// updateUserRequest fields are all optional; empty values leave the stored
// value unchanged.
type updateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// List returns every customer and attendant.
//
// @Summary      List manageable users
// @Tags         users
// @Produce      json
// @Success      200  {object}  domain.ManagedUsers
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	users, err := h.authService.ListManageable(c.Request().Context(), caller)
	metrics.ObserveAccountOperation("list", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// ActiveCustomers returns the active customers an order can be opened for.
//
// @Summary      List active customers
// @Tags         users
// @Produce      json
// @Success      200  {array}   domain.User
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /customers [get]
func (h *UserHandler) ActiveCustomers(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	customers, err := h.authService.ListActiveCustomers(c.Request().Context(), caller)
	metrics.ObserveAccountOperation("list_customers", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customers)
}

// Create adds a customer or attendant account.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "New account"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		metrics.ObserveAccountOperation("create", err)
		return err
	}

	user, err := h.authService.CreateManagedUser(c.Request().Context(), caller, ports.NewUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	metrics.ObserveAccountOperation("create", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Update applies a partial update to a customer or attendant.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	update := ports.UserUpdate{Name: req.Name, Email: req.Email, Password: req.Password}
	if req.Role != "" {
		role, err := domain.ParseRole(req.Role)
		if err != nil {
			metrics.ObserveAccountOperation("update", err)
			return err
		}
		update.Role = role
	}

	user, err := h.authService.UpdateManagedUser(c.Request().Context(), caller, c.Param("id"), update)
	metrics.ObserveAccountOperation("update", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Deactivate marks an account inactive. The record is kept.
//
// @Summary      Deactivate a user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id}/deactivate [post]
func (h *UserHandler) Deactivate(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.authService.DeactivateUser(c.Request().Context(), caller, c.Param("id"))
	metrics.ObserveAccountOperation("deactivate", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Activate marks an account active again.
//
// @Summary      Activate a user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id}/activate [post]
func (h *UserHandler) Activate(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.authService.ActivateUser(c.Request().Context(), caller, c.Param("id"))
	metrics.ObserveAccountOperation("activate", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Remove permanently deletes an account.
//
// @Summary      Remove a user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  domain.RemovalConfirmation
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [delete]
func (h *UserHandler) Remove(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	confirmation, err := h.authService.RemoveUser(c.Request().Context(), caller, c.Param("id"))
	metrics.ObserveAccountOperation("remove", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, confirmation)
}
