package dto

import (
	"strings"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/passhash"
	"github.com/Temutjin2k/authhub/pkg/validator"
	"github.com/google/uuid"
)

type CreateUserRequest struct {
	TenantID       uuid.UUID   `json:"tenant_id"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	Email          string      `json:"email"`
	Password       string      `json:"password"`
	Type           string      `json:"type"`
	Name           string      `json:"name"`
	Phone          string      `json:"phone"`
	RoleIDs        []uuid.UUID `json:"role_ids"`
}

func (r *CreateUserRequest) ToModel() *models.UserCreateRequest {
	typ := types.UserType(strings.ToUpper(r.Type))
	if typ == "" {
		typ = types.UserTypePublic
	}
	return &models.UserCreateRequest{
		TenantID:       r.TenantID,
		OrganizationID: r.OrganizationID,
		Email:          strings.TrimSpace(r.Email),
		Password:       r.Password,
		Type:           typ,
		Name:           strings.TrimSpace(r.Name),
		Phone:          strings.TrimSpace(r.Phone),
		RoleIDs:        r.RoleIDs,
	}
}

func ValidateCreateUser(v *validator.Validator, req *CreateUserRequest) {
	v.Check(req.TenantID != uuid.Nil, "tenant_id", "must be provided")
	v.Check(req.OrganizationID != uuid.Nil, "organization_id", "must be provided")

	v.Check(req.Email != "", "email", "must be provided")
	v.Check(validator.Matches(req.Email, validator.EmailRX), "email", "must be a valid email address")
	v.Check(len(req.Email) <= 255, "email", "must not be more than 255 bytes long")

	passhash.ValidatePolicy(v, "password", req.Password)

	if req.Type != "" {
		v.Check(validator.PermittedValue(types.UserType(strings.ToUpper(req.Type)), types.UserTypePublic, types.UserTypeInternal),
			"type", "must be PUBLIC or INTERNAL")
	}
	v.Check(validator.MaxBytes(req.Name, 255), "name", "must not be more than 255 bytes long")
	if req.Phone != "" {
		v.Check(validator.Matches(req.Phone, validator.PhoneRX), "phone", "must be a valid phone number")
	}
	v.Check(validator.Unique(req.RoleIDs), "role_ids", "must not contain duplicates")
}

type UpdateUserRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func ValidateUpdateUser(v *validator.Validator, req *UpdateUserRequest) {
	v.Check(req.Name != "" || req.Phone != "", "body", "name or phone must be provided")
	v.Check(validator.MaxBytes(req.Name, 255), "name", "must not be more than 255 bytes long")
	if req.Phone != "" {
		v.Check(validator.Matches(req.Phone, validator.PhoneRX), "phone", "must be a valid phone number")
	}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func ValidateChangePassword(v *validator.Validator, req *ChangePasswordRequest) {
	passhash.ValidatePolicy(v, "new_password", req.NewPassword)
}

type IDsRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

func ValidateIDs(v *validator.Validator, req *IDsRequest) {
	v.Check(len(req.IDs) > 0, "ids", "must contain at least one id")
	v.Check(len(req.IDs) <= 100, "ids", "must not contain more than 100 ids")
	v.Check(validator.Unique(req.IDs), "ids", "must not contain duplicates")
}
