package subscription

import "errors"

var (
	ErrTenantNotActive  = errors.New("only active tenants can subscribe to services")
	ErrServiceNotActive = errors.New("only active services can be subscribed to")
)
