package dispatch

import "errors"

// Sentinel errors for registration and lifecycle calls.
var (
	// ErrDuplicatePriority is returned when a callback is already bound to the
	// requested priority for the same identity.
	ErrDuplicatePriority = errors.New("priority already registered for gesture")

	// ErrWildcardIdentity is returned when On is called with the any identity.
	// Use OnAny for wildcard observers.
	ErrWildcardIdentity = errors.New("wildcard identity requires OnAny")

	// ErrInvalidIdentity is returned for identities that real input can never produce.
	ErrInvalidIdentity = errors.New("invalid gesture identity")

	// ErrNilCallback is returned when a nil callback is registered.
	ErrNilCallback = errors.New("callback cannot be nil")

	// ErrInvalidCount is returned when a count trigger target is below one.
	ErrInvalidCount = errors.New("count target must be at least 1")

	// ErrAlreadyRegistered is returned when Register is called on a live manager.
	ErrAlreadyRegistered = errors.New("gesture manager already registered")

	// ErrNotRegistered is returned when a pair is submitted to a detached manager.
	ErrNotRegistered = errors.New("gesture manager not registered")
)
