package errors

import (
	stderrors "errors"
	"fmt"
)

// Kinds raised by the timer core. Match with errors.Is.
var (
	ErrInvalidState  = stderrors.New("invalid state")
	ErrStorage       = stderrors.New("storage error")
	ErrConfiguration = stderrors.New("configuration error")
)

// Storage wraps a persistence failure so it matches ErrStorage and still unwraps to the cause.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, stderrors.Join(ErrStorage, err))
}

func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// FromError maps a core error onto the HTTP error shape.
func FromError(err error) *APIError {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, ErrInvalidState):
		return Conflict("invalid_state", err.Error(), nil)
	case stderrors.Is(err, ErrConfiguration):
		return BadRequest("invalid_configuration", err.Error())
	case stderrors.Is(err, ErrStorage):
		return Internal("storage failure")
	default:
		return Internal("")
	}
}
