package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gulfreturn/gulf-api/internal/validation"
)

var (
	ErrForbidden           = errors.New("invalid admin secret key")
	ErrConflict            = errors.New("user with this email or username already exists")
	ErrUnauthorized        = errors.New("invalid or expired credential")
	ErrUpstreamUnavailable = errors.New("identity provider unavailable")
	ErrAccountInactive     = errors.New("account is not active")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientRole    = errors.New("admin privileges required")

	// ErrIdentityConflict is an ErrConflict where the email belongs to an account using another sign-in method.
	ErrIdentityConflict = fmt.Errorf("%w: email registered with a different sign-in method", ErrConflict)
)

// ValidationError carries every failing field, in report order.
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "validation failed: " + strings.Join(names, ", ")
}
