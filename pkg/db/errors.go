package db

import "errors"

var (
	// ErrNotFound is returned by point lookups when no row matches
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert or update violates a
	// uniqueness constraint. The engine maps it to a domain-level
	// duplicate-assignment or duplicate-lead rejection.
	ErrDuplicate = errors.New("duplicate record")
)
