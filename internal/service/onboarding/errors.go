package onboarding

import "errors"

var (
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrNameRequired           = errors.New("tenant and organization names are required")
)
