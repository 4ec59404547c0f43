package dto

import (
	"strings"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/service/role"
	"github.com/Temutjin2k/authhub/pkg/validator"
	"github.com/google/uuid"
)

type CreateRoleRequest struct {
	TenantID    *uuid.UUID `json:"tenant_id"`
	ServiceID   *uuid.UUID `json:"service_id"`
	Name        string     `json:"name"`
	DisplayName string     `json:"display_name"`
	Description string     `json:"description"`
}

func (r *CreateRoleRequest) ToModel() role.CreateRequest {
	return role.CreateRequest{
		TenantID:    r.TenantID,
		ServiceID:   r.ServiceID,
		Name:        strings.ToUpper(strings.TrimSpace(r.Name)),
		DisplayName: strings.TrimSpace(r.DisplayName),
		Description: r.Description,
	}
}

func ValidateCreateRole(v *validator.Validator, req *CreateRoleRequest) {
	name := strings.ToUpper(strings.TrimSpace(req.Name))
	v.Check(name != "", "name", "must be provided")
	v.Check(validator.Matches(name, models.RoleNameRX), "name", "must be upper snake case, 2 to 64 characters")
	v.Check(validator.MaxBytes(req.DisplayName, 255), "display_name", "must not be more than 255 bytes long")
	v.Check(validator.MaxBytes(req.Description, 1000), "description", "must not be more than 1000 bytes long")
}

type UpdateRoleRequest struct {
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

func ValidateUpdateRole(v *validator.Validator, req *UpdateRoleRequest) {
	v.Check(validator.MaxBytes(req.DisplayName, 255), "display_name", "must not be more than 255 bytes long")
	v.Check(validator.MaxBytes(req.Description, 1000), "description", "must not be more than 1000 bytes long")
}
