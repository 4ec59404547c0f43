package dto

import (
	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/pkg/validator"
)

type OnboardingRequest struct {
	TenantName       string `json:"tenant_name"`
	OrganizationName string `json:"organization_name"`
}

func ValidateOnboarding(v *validator.Validator, req *OnboardingRequest) {
	v.Check(validator.NotBlank(req.TenantName), "tenant_name", "must be provided")
	v.Check(validator.MaxBytes(req.TenantName, 255), "tenant_name", "must not be more than 255 bytes long")
	v.Check(validator.NotBlank(req.OrganizationName), "organization_name", "must be provided")
	v.Check(validator.MaxBytes(req.OrganizationName, 255), "organization_name", "must not be more than 255 bytes long")
}

func ValidateSync(v *validator.Validator, req *models.SyncRequest) {
	v.Check(validator.NotBlank(req.ServiceName), "service_name", "must be provided")
	v.Check(len(req.Endpoints) <= 5000, "endpoints", "must not contain more than 5000 items")
}

type ValidatePermissionsRequest struct {
	ServiceName    string   `json:"service_name"`
	PermissionKeys []string `json:"permission_keys"`
}

func ValidateValidatePermissions(v *validator.Validator, req *ValidatePermissionsRequest) {
	v.Check(len(req.PermissionKeys) > 0, "permission_keys", "must contain at least one key")
	v.Check(len(req.PermissionKeys) <= 1000, "permission_keys", "must not contain more than 1000 keys")
}

type UsageRequest struct {
	ServiceName string   `json:"service_name"`
	Locations   []string `json:"locations"`
}

func ValidateUsage(v *validator.Validator, req *UsageRequest) {
	v.Check(validator.NotBlank(req.ServiceName), "service_name", "must be provided")
	v.Check(len(req.Locations) <= 1000, "locations", "must not contain more than 1000 entries")
}

type RateLimitResetRequest struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
	Endpoint   string `json:"endpoint"`
}

func ValidateRateLimitReset(v *validator.Validator, req *RateLimitResetRequest) {
	v.Check(req.Type == "IP_BASED" || req.Type == "USER_BASED" || req.Type == "ENDPOINT_BASED",
		"type", "must be one of IP_BASED, USER_BASED, ENDPOINT_BASED")
	v.Check(validator.NotBlank(req.Identifier), "identifier", "must be provided")
}
