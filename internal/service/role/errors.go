package role

import "errors"

var (
	ErrUnknownPermissions = errors.New("one or more permissions do not exist")
	ErrUnknownRoles       = errors.New("one or more roles do not exist")
	ErrForeignRole        = errors.New("role belongs to another tenant")
	ErrEmptyIDs           = errors.New("at least one id is required")
)
