package domain

import "errors"

var (
	// ErrNotExist marks lookups for records that were never created.
	ErrNotExist = errors.New("record does not exist")

	// ErrConflict marks inserts that collide with an existing key.
	ErrConflict = errors.New("record already exists")

	// ErrInvalid marks requests rejected before any work is done.
	ErrInvalid = errors.New("invalid request")

	// ErrForbidden marks failed identity or PIN checks.
	ErrForbidden = errors.New("forbidden")
)
