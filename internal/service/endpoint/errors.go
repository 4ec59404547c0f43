package endpoint

import "errors"

var (
	ErrEmptyServiceName = errors.New("service name is required")
	ErrNoMatch          = errors.New("no endpoint matches the request")
)
