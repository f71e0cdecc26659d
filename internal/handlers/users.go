package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/toptunez/internal/middleware/auth"
	"github.com/Skotchmaster/toptunez/internal/service"
)

type UserHandler struct {
	Users *service.UserService
}

type signUpRequest struct {
	Email     string `json:"email"     validate:"required,email"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"  validate:"required"`
	Password  string `json:"password"  validate:"required"`
}

func (h *UserHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := bindBody(c, &req); err != nil {
		return httpError(c, "sign_up_error", err)
	}

	res, err := h.Users.SignUp(c.Request().Context(), service.SignUpInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return httpError(c, "sign_up_error", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"token": res.Token})
}

type logInRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *UserHandler) LogIn(c echo.Context) error {
	var req logInRequest
	if err := bindBody(c, &req); err != nil {
		return httpError(c, "log_in_error", err)
	}

	res, err := h.Users.LogIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httpError(c, "log_in_error", err)
	}
	if res == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": res.Token})
}

type toggleMFARequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func (h *UserHandler) ToggleMFA(c echo.Context) error {
	var req toggleMFARequest
	if err := bindBody(c, &req); err != nil {
		return httpError(c, "toggle_mfa_error", err)
	}

	status, err := h.Users.ToggleMFA(c.Request().Context(), authmw.Identity(c).Email, *req.Enabled)
	if err != nil {
		return httpError(c, "toggle_mfa_error", err)
	}

	resp := echo.Map{"enabled": status.Enabled}
	if status.URL != nil {
		resp["url"] = *status.URL
	}
	return c.JSON(http.StatusOK, resp)
}
