package service

import "errors"

// Authentication errors. Domain error classes live in the domain package.
var (
	// ErrUnauthorized is returned when the caller is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks the required role
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials is returned when login fails
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUserInactive is returned when a deactivated user tries to log in
	ErrUserInactive = errors.New("user is inactive")
)
