package types

import "errors"

var (
	ErrNotFound            = errors.New("requested item not found")
	ErrConflict            = errors.New("item already exists")
	ErrDatabaseFailed      = errors.New("database operation failed")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrAccessDenied        = errors.New("access denied")
	ErrUnauthorized        = errors.New("authentication required")
	ErrSystemDefinition    = errors.New("system definitions cannot be modified")
	ErrInvalidServiceToken = errors.New("invalid service token")
)
