package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	authz "github.com/Skotchmaster/toptunez/internal/auth"
	"github.com/Skotchmaster/toptunez/internal/logging"
	"github.com/Skotchmaster/toptunez/internal/service"
)

// Authenticate resolves the caller on every request. Anonymous requests pass
// through; requests carrying a bad credential are rejected with 401.
func Authenticate(g *authz.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id, err := g.Authenticate(req.Context(), req.Header.Get(authz.HeaderAuthorization), req.Header.Get(authz.HeaderTOTP))
			if err != nil {
				l := logging.FromContext(req.Context())
				if service.IsAuthFailure(err) {
					l.Warn("authentication_failed", "status", 401, "error", err)
					return authHTTPError(err)
				}
				l.Error("authentication_error", "status", 500, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
			}
			if id != nil {
				setUserContext(c, id)
			}
			return next(c)
		}
	}
}

// Require enforces the operation's entry in the policy table.
func Require(op authz.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authz.Authorize(Identity(c), op); err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, service.ErrForbidden) {
					status = http.StatusForbidden
				}
				logging.FromContext(c.Request().Context()).Warn("authorization_failed", "op", string(op), "status", status, "error", err)
				return echo.NewHTTPError(status, err.Error()).SetInternal(err)
			}
			return next(c)
		}
	}
}
