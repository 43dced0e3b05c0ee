package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when an insert collides with an existing row,
	// such as a second live registration for the same (meeting, user) pair.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrConstraintViolation is returned when stored data would violate a
	// CHECK constraint, such as a non-positive capacity.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced row is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)
