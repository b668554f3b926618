package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/comanda/account-service/internal/api/metrics"
	"github.com/comanda/account-service/internal/api/middleware"
	"github.com/comanda/account-service/internal/core/domain"
	"github.com/comanda/account-service/internal/core/ports"
)

// CookieSettings controls the session cookie written on login.
type CookieSettings struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieSettings
}

func NewAuthHandler(authService ports.AuthService, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      domain.Identity `json:"user"`
}

type meResponse struct {
	domain.Identity
	IsCustomer  bool `json:"is_customer"`
	IsAttendant bool `json:"is_attendant"`
	IsCashier   bool `json:"is_cashier"`
}

// Register creates a customer account.
//
// @Summary      Register a new customer
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Customer registration details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.RegisterCustomer(c.Request().Context(), req.Name, req.Email, req.Password)
	metrics.ObserveAccountOperation("register", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

// Login authenticates a user and starts a session. The session token is set
// as an HTTP-only cookie and also returned for non-browser clients.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	ctx := c.Request().Context()
	identity, err := h.authService.Authenticate(ctx, req.Email, req.Password)
	metrics.AuthAttemptsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	session, token, err := h.authService.StartSession(ctx, *identity)
	if err != nil {
		return err
	}
	metrics.SessionsTotal.WithLabelValues("started").Inc()

	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      *identity,
	})
}

// Logout ends the current session, if any, and clears the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if token := middleware.TokenFromRequest(c, h.cookie.Name); token != "" {
		if h.authService.EndSession(c.Request().Context(), token) {
			metrics.SessionsTotal.WithLabelValues("ended").Inc()
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.NoContent(http.StatusNoContent)
}

// Me returns the identity bound to the current session.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  meResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, meResponse{
		Identity:    identity,
		IsCustomer:  identity.IsCustomer(),
		IsAttendant: identity.IsAttendant(),
		IsCashier:   identity.IsCashier(),
	})
}
