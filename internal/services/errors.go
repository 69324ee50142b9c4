package services

import "errors"

var (
	// ErrNotFound is returned when a record does not exist or is owned by another user.
	// The two cases are indistinguishable to callers.
	ErrNotFound = errors.New("not found")

	// ErrListNotOwned is returned when a task references a list the caller does not own.
	ErrListNotOwned = errors.New("List not found or doesn't belong to user")

	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
)
