package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/comanda/account-service/internal/api/middleware"
	"github.com/comanda/account-service/internal/core/domain"
)

// callerIdentity returns the identity injected by the Session middleware.
// A missing identity means the route was mounted without it.
func callerIdentity(c echo.Context) (domain.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	return identity, nil
}

// bindAndValidate decodes the request body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
