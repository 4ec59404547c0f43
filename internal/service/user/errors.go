package user

import "errors"

var (
	ErrOrganizationMismatch = errors.New("organization does not belong to the tenant")
	ErrParentNotActive      = errors.New("tenant or organization is not active")
	ErrWrongPassword        = errors.New("current password is incorrect")
	ErrCurrentPasswordEmpty = errors.New("current password is required")
)
