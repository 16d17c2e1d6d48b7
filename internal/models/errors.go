package models

import "errors"

var (
	// ErrNotFound means the requested row does not exist (or is not visible).
	ErrNotFound = errors.New("not found")

	// ErrSlugTaken is returned when another article already uses the slug.
	ErrSlugTaken = errors.New("slug already in use")

	// ErrUsernameTaken is returned when another user already has the username.
	ErrUsernameTaken = errors.New("username already in use")

	// ErrUnknownField is returned for a user column outside the fixed set.
	ErrUnknownField = errors.New("unknown user field")

	// ErrFieldTooLong is returned when a value does not fit its column.
	ErrFieldTooLong = errors.New("value too long")

	ErrInvalidCredentials = errors.New("invalid credentials")
)
