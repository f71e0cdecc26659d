package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	authz "github.com/Skotchmaster/toptunez/internal/auth"
	"github.com/Skotchmaster/toptunez/internal/service"
)

const (
	CtxEmail = "email"
	CtxRoles = "roles"
)

func setUserContext(c echo.Context, id *authz.Identity) {
	c.Set(CtxEmail, id.Email)
	c.Set(CtxRoles, id.Roles)
	c.SetRequest(c.Request().WithContext(authz.WithIdentity(c.Request().Context(), id)))
}

// Identity returns the caller resolved by Authenticate, or nil.
func Identity(c echo.Context) *authz.Identity {
	return authz.FromContext(c.Request().Context())
}

func authHTTPError(err error) error {
	switch {
	case errors.Is(err, service.ErrMFARequired), errors.Is(err, service.ErrMFAInvalid):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error()).SetInternal(err)
	case errors.Is(err, service.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token").SetInternal(err)
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error()).SetInternal(err)
	}
	return err
}
