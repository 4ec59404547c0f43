package organization

import "errors"

var ErrTenantNotActive = errors.New("organizations can only be created in an active tenant")
