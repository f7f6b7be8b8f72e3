package domain

import "errors"

var (
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden is returned when the caller lacks permission for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is returned (wrapped) for all validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateEmail is returned when registering an email that already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateInstance is returned when inserting a series instance whose
	// (parent, start time) pair already exists.
	ErrDuplicateInstance = errors.New("series instance already exists for this start time")
)
