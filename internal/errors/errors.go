package errors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrDuplicate           = errors.New("duplicate entry")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNetwork             = errors.New("network failure")
	ErrNotFound            = errors.New("not found")
	ErrNoSession           = errors.New("no active session")
	ErrStaleSession        = errors.New("session changed while request was in flight")
	ErrUnknownConfirmation = errors.New("unknown or expired confirmation")
)

// ValidationError reports a field rejected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validation builds a ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RemoteError is a classified failure returned by the remote service.
// Status is zero for transport failures.
type RemoteError struct {
	Kind    error
	Op      string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	switch {
	case e.Status == 0 && e.Message != "":
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Message)
	case e.Status == 0:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Message != "":
		return fmt.Sprintf("%s: %v (status %d): %s", e.Op, e.Kind, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s: %v (status %d)", e.Op, e.Kind, e.Status)
	}
}

func (e *RemoteError) Unwrap() error { return e.Kind }

// IsAuth reports whether err is any authentication failure.
func IsAuth(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUnauthorized)
}

// UserMessage turns an error into text suitable for the person using the app.
func UserMessage(err error) string {
	var vErr *ValidationError
	var rErr *RemoteError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &vErr):
		return vErr.Error()
	case errors.Is(err, ErrDuplicate):
		if errors.As(err, &rErr) && rErr.Message != "" {
			return rErr.Message
		}
		return "This entry already exists."
	case errors.Is(err, ErrInvalidCredentials):
		return "Wrong e-mail or password."
	case errors.Is(err, ErrUnauthorized):
		return "Your session has expired, please log in again."
	case errors.Is(err, ErrNoSession):
		return "You are not logged in."
	case errors.Is(err, ErrUnknownConfirmation):
		return "Nothing to confirm, the request has expired."
	case errors.Is(err, ErrValidation):
		if errors.As(err, &rErr) && rErr.Message != "" {
			return rErr.Message
		}
		return "Some fields are invalid."
	case errors.Is(err, ErrNotFound):
		return "Not found."
	default:
		return "Could not reach the server, please try again."
	}
}
