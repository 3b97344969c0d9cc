package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/authtest/internal/textinput"
	"github.com/nfrund/authtest/internal/view/dto/auth"
)

// ErrUnknownField is returned for a field name the form does not have.
var ErrUnknownField = errors.New("unknown form field")

// validate mirrors the browser's native constraints (type=email, required,
// minlength) so a submission that bypasses them is still refused.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// signUpFields are the sign-up values under validation.
type signUpFields struct {
	Email        string `form:"email" validate:"required,email"`
	Password     string `form:"password" validate:"required,min=8"`
	Confirmation string `form:"confirmation" validate:"required,min=8"`
}

type signInFields struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=8"`
}

// fieldErrors converts validator output into per-field messages worded like
// the browser's own constraint messages.
func fieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "Please fill out this field."
		case "email":
			out[fe.Field()] = "Please enter an email address."
		case "min":
			out[fe.Field()] = fmt.Sprintf("Please use at least %s characters.", fe.Param())
		default:
			out[fe.Field()] = "Please match the requested format."
		}
	}
	return out
}

// SignUpForm holds the sign-up inputs for as long as the form is mounted.
type SignUpForm struct {
	Email        *textinput.Input
	Password     *textinput.Input
	Confirmation *textinput.Input

	mu     sync.Mutex
	errors map[string]string
}

// NewSignUpForm creates an empty sign-up form.
func NewSignUpForm() *SignUpForm {
	return &SignUpForm{
		Email:        textinput.New(),
		Password:     textinput.New(),
		Confirmation: textinput.New(),
	}
}

// Input returns the input bound to field.
func (f *SignUpForm) Input(field string) (*textinput.Input, error) {
	switch field {
	case auth.FieldEmail:
		return f.Email, nil
	case auth.FieldPassword:
		return f.Password, nil
	case auth.FieldConfirmation:
		return f.Confirmation, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// Validate checks the native constraints and records the field errors.
func (f *SignUpForm) Validate() map[string]string {
	errs := fieldErrors(validate.Struct(signUpFields{
		Email:        f.Email.Value(),
		Password:     f.Password.Value(),
		Confirmation: f.Confirmation.Value(),
	}))
	f.mu.Lock()
	f.errors = errs
	f.mu.Unlock()
	return errs
}

// Mismatch reports whether password and confirmation differ.
func (f *SignUpForm) Mismatch() bool {
	return f.Password.Value() != f.Confirmation.Value()
}

// Data returns the form's view model.
func (f *SignUpForm) Data() *auth.SignUpData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &auth.SignUpData{
		Email:  f.Email.Bind().Value,
		Errors: f.errors,
	}
}

// SignInForm holds the sign-in inputs for as long as the form is mounted.
type SignInForm struct {
	Email    *textinput.Input
	Password *textinput.Input

	mu     sync.Mutex
	errors map[string]string
}

// NewSignInForm creates an empty sign-in form.
func NewSignInForm() *SignInForm {
	return &SignInForm{
		Email:    textinput.New(),
		Password: textinput.New(),
	}
}

// Input returns the input bound to field.
func (f *SignInForm) Input(field string) (*textinput.Input, error) {
	switch field {
	case auth.FieldEmail:
		return f.Email, nil
	case auth.FieldPassword:
		return f.Password, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// Validate checks the native constraints and records the field errors.
func (f *SignInForm) Validate() map[string]string {
	errs := fieldErrors(validate.Struct(signInFields{
		Email:    f.Email.Value(),
		Password: f.Password.Value(),
	}))
	f.mu.Lock()
	f.errors = errs
	f.mu.Unlock()
	return errs
}

// Data returns the form's view model.
func (f *SignInForm) Data() *auth.SignInData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &auth.SignInData{
		Email:  f.Email.Bind().Value,
		Errors: f.errors,
	}
}

// inputForm is satisfied by both forms.
type inputForm interface {
	Input(field string) (*textinput.Input, error)
}

// applyValues feeds submitted values through each field's change handler.
// Fields missing from values keep their current content.
func applyValues(f inputForm, values map[string]string) error {
	for field, v := range values {
		in, err := f.Input(field)
		if err != nil {
			return err
		}
		in.Bind().OnChange(v)
	}
	return nil
}
