package models

import "errors"

// Common errors for custody operations. Services and handlers match these
// with errors.Is; the API boundary maps them to HTTP statuses.
var (
	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrUserDisabled       = errors.New("user account is disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Record errors
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateRecord = errors.New("record already exists")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Conflict is returned when a custody change loses a storage-level
	// race. The caller may retry; the core never retries internally.
	ErrConflict = errors.New("concurrent custody change conflict")
)
