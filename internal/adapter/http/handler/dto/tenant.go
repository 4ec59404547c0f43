package dto

import (
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/validator"
	"github.com/google/uuid"
)

type NameRequest struct {
	Name string `json:"name"`
}

func ValidateName(v *validator.Validator, name string) {
	v.Check(validator.NotBlank(name), "name", "must be provided")
	v.Check(validator.MaxBytes(name, 255), "name", "must not be more than 255 bytes long")
}

type CreateOrganizationRequest struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Name     string    `json:"name"`
}

func ValidateCreateOrganization(v *validator.Validator, req *CreateOrganizationRequest) {
	v.Check(req.TenantID != uuid.Nil, "tenant_id", "must be provided")
	ValidateName(v, req.Name)
}

type StatusRequest struct {
	Status string `json:"status"`
}

// ValidateLifecycleStatus accepts the statuses tenants and organizations can move to.
func ValidateLifecycleStatus(v *validator.Validator, req *StatusRequest) {
	v.Check(validator.PermittedValue(types.Status(req.Status), types.StatusActive, types.StatusInactive, types.StatusDeleted),
		"status", "must be one of ACTIVE, INACTIVE, DELETED")
}

func ValidateUserStatus(v *validator.Validator, req *StatusRequest) {
	v.Check(validator.PermittedValue(types.Status(req.Status), types.StatusActive, types.StatusInactive, types.StatusSuspended, types.StatusDeleted),
		"status", "must be one of ACTIVE, INACTIVE, SUSPENDED, DELETED")
}

func ValidateServiceStatus(v *validator.Validator, req *StatusRequest) {
	v.Check(validator.PermittedValue(types.ServiceStatus(req.Status), types.ServiceActive, types.ServiceInactive),
		"status", "must be one of ACTIVE, INACTIVE")
}
