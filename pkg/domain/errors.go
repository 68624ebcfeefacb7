package domain

import "errors"

// Error classes. Every specific error in the domain packages wraps exactly one
// of these, so callers can branch on the class with errors.Is.
var (
	// ErrValidation is returned when input has the wrong shape or range.
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized is returned when a credential or session is missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when an authenticated principal lacks the role or ownership required.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrConflict is returned when an operation clashes with existing state.
	ErrConflict = errors.New("conflict")
	// ErrIntegrity is returned when a stored invariant has been violated.
	ErrIntegrity = errors.New("integrity violation")
)

// ErrAlreadyExists is returned when trying to create a resource that already exists
var ErrAlreadyExists = NewError(ErrConflict, "resource already exists")

// Error is a specific domain error that belongs to one of the error classes.
type Error struct {
	class error
	msg   string
}

// NewError returns a specific error of the given class.
func NewError(class error, msg string) *Error {
	return &Error{class: class, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Unwrap exposes the class so errors.Is(err, ErrValidation) holds.
func (e *Error) Unwrap() error { return e.class }

// Class reports which error class err belongs to, or nil when it is not a domain error.
func Class(err error) error {
	for _, c := range []error{
		ErrValidation,
		ErrUnauthorized,
		ErrForbidden,
		ErrNotFound,
		ErrConflict,
		ErrIntegrity,
	} {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}
