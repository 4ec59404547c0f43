package models

import "errors"

var (
	ErrNotActive            = errors.New("resource is not active")
	ErrInvalidPermissionKey = errors.New("permission key must look like resource:action")
	ErrInvalidURLPattern    = errors.New("url pattern must start with /")
	ErrInvalidHTTPMethod    = errors.New("unsupported http method")
	ErrAlreadyDeleted       = errors.New("resource is already deleted")
	ErrNotDeleted           = errors.New("resource is not deleted")
)
