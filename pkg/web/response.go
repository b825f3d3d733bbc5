// Package web defines common components for a web application.
package web

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/moneypkg"
)

// JSONError provides type for explicit json encoded error response.
type JSONError struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// Error wraps a given err into json frinedly struct. Persistence failures
// are reported without their internal details.
func Error(err error) *JSONError {
	kind := domain.KindOf(err)

	msg := err.Error()
	if kind == domain.KindPersistence {
		msg = domain.ErrPersistence.Error()
	}

	return &JSONError{
		Kind:    kind,
		Message: msg,
	}
}

// Response holds the common response type for all APIs.
type Response struct {
	Data  any        `json:"data,omitempty"`
	Error *JSONError `json:"error,omitempty"`
}

// ErrorResponse wraps err into a Response.
func ErrorResponse(err error) Response {
	return Response{Error: Error(err)}
}

// KindUnauthorized marks requests rejected by the authentication middleware.
const KindUnauthorized domain.ErrorKind = "unauthorized"

// UnauthorizedResponse wraps an authentication error into a Response.
func UnauthorizedResponse(err error) Response {
	return Response{Error: &JSONError{Kind: KindUnauthorized, Message: err.Error()}}
}

// BindingError converts a request binding error into a validation response.
func BindingError(err error) Response {
	msg := err.Error()

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		field := ve[0]
		msg = field.Field() + GetErrorMsg(field)
	}

	return Response{Error: &JSONError{Kind: domain.KindValidation, Message: msg}}
}

// GetErrorMsg returns a human readable suffix for a failed validation tag.
func GetErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return " field is required"
	case "money":
		return " must be a positive amount with at most " + strconv.Itoa(domain.AmountScale) + " decimals"
	case "min":
		return " must be at least " + fe.Param()
	case "max":
		return " must be at most " + fe.Param()
	}

	return " is invalid"
}

// RegisterValidators registers the custom binding tags on gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}

	return v.RegisterValidation("money", moneypkg.ValidAmount)
}
