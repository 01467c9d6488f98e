package auth

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Error kinds returned by Service. Match with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInternal        = errors.New("internal error")
)

// Kind names the sentinel err wraps, for metrics labels and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "internal"
	}
}

func invalidInput(code, public string) error {
	return oops.Code(code).Public(public).Wrap(ErrInvalidInput)
}

func notFound(username string) error {
	return oops.Code("USER_NOT_FOUND").
		With("username", username).
		Public("User not found").
		Wrap(ErrNotFound)
}

func internal(operation string, err error) error {
	return oops.Code("INTERNAL").
		With("operation", operation).
		Public("Internal server error").
		Wrap(fmt.Errorf("%w: %w", ErrInternal, err))
}
