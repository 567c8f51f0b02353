package connections

import "errors"

var (
	// ErrInvalidTarget indicates the requested target is empty, unknown, or the
	// actor themselves.
	ErrInvalidTarget = errors.New("invalid connection target")
	// ErrDuplicate indicates a record already pairs the two users, in either
	// role ordering and regardless of status.
	ErrDuplicate = errors.New("connection already exists")
	// ErrNotFound indicates no connection matches the provided identifier.
	ErrNotFound = errors.New("connection not found")
	// ErrUnauthorized indicates the actor is not the recipient of the record.
	ErrUnauthorized = errors.New("actor is not the connection recipient")
	// ErrInvalidState indicates the operation is not valid for the record's
	// current status.
	ErrInvalidState = errors.New("connection is not pending")
)

// Code maps a service error to its stable machine-checkable code. Errors
// outside the domain taxonomy map to "internal".
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTarget):
		return "invalid_target"
	case errors.Is(err, ErrDuplicate):
		return "duplicate_connection"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	default:
		return "internal"
	}
}
