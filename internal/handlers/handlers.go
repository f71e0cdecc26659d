package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/toptunez/internal/logging"
	"github.com/Skotchmaster/toptunez/internal/service"
)

// bindBody decodes the JSON body into dst, rejecting fields dst does not
// declare, and then runs the registered validator.
func bindBody(c echo.Context, dst any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, service.ErrValidation)
	}
	if err := c.Validate(dst); err != nil {
		return fmt.Errorf("%v: %w", err, service.ErrValidation)
	}
	return nil
}

// httpError maps service errors to HTTP responses. Unexpected errors are
// logged under event and answered with a generic 500.
func httpError(c echo.Context, event string, err error) error {
	l := logging.FromContext(c.Request().Context())

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		code = http.StatusConflict
	case service.IsAuthFailure(err):
		code = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		code = http.StatusForbidden
	}

	if code == http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
		return echo.NewHTTPError(code, "internal error").SetInternal(err)
	}
	l.Warn(event, "status", code, "error", err)
	return echo.NewHTTPError(code, err.Error()).SetInternal(err)
}
