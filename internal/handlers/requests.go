package handlers

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

// TabRequest is posted by the public view's toggle link.
type TabRequest struct {
	Tab string `form:"tab" validate:"required,oneof=sign-up sign-in"`
}

// InputRequest is posted on every input change. The field's value is sent
// under the field's own name.
type InputRequest struct {
	Form  string `form:"form" validate:"required,oneof=sign-up sign-in"`
	Field string `form:"field" validate:"required,oneof=email password confirmation"`
}

// SignUpRequest is the sign-up form submission. Field constraints are checked
// by the form itself so violations can be shown next to the inputs.
type SignUpRequest struct {
	Email        string `form:"email"`
	Password     string `form:"password"`
	Confirmation string `form:"confirmation"`
}

// SignInRequest is the sign-in form submission.
type SignInRequest struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}
