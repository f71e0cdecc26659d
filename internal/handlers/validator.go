package handlers

import (
	"github.com/go-playground/validator/v10"

	"github.com/Skotchmaster/toptunez/internal/service"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("sortspec", func(fl validator.FieldLevel) bool {
		return service.ValidSortSpec(fl.Field().String())
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
	return cv.v.Struct(i)
}
