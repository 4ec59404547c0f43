package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpToken           = errors.New("expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrUserNotActive      = errors.New("user is not active")
	ErrTenantNotActive    = errors.New("tenant or organization is not active")
	ErrUserIDRequired     = errors.New("user id is required")
	ErrNoSigningKey       = errors.New("no signing key configured")
)
