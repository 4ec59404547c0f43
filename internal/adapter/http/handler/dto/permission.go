package dto

import (
	"strings"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/service/endpoint"
	"github.com/Temutjin2k/authhub/pkg/validator"
	"github.com/google/uuid"
)

type CreatePermissionRequest struct {
	ServiceID   *uuid.UUID `json:"service_id"`
	Key         string     `json:"key"`
	Description string     `json:"description"`
}

func ValidateCreatePermission(v *validator.Validator, req *CreatePermissionRequest) {
	key := strings.ToLower(strings.TrimSpace(req.Key))
	v.Check(key != "", "key", "must be provided")
	v.Check(validator.Matches(key, models.PermissionKeyRX), "key", "must look like resource:action")
	v.Check(validator.MaxBytes(req.Description, 1000), "description", "must not be more than 1000 bytes long")
}

type DescriptionRequest struct {
	Description string `json:"description"`
}

type CreateServiceRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func ValidateCreateService(v *validator.Validator, req *CreateServiceRequest) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	v.Check(code != "", "code", "must be provided")
	v.Check(validator.Matches(code, models.ServiceCodeRX), "code", "must look like SVC_NAME")
	ValidateName(v, req.Name)
}

type UpdateServiceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type EndpointRequest struct {
	PermissionID uuid.UUID `json:"permission_id"`
	ServiceName  string    `json:"service_name"`
	URLPattern   string    `json:"url_pattern"`
	HTTPMethod   string    `json:"http_method"`
	Description  string    `json:"description"`
	IsPublic     bool      `json:"is_public"`
}

func (r *EndpointRequest) ToCreate() endpoint.CreateRequest {
	return endpoint.CreateRequest{
		PermissionID: r.PermissionID,
		ServiceName:  strings.TrimSpace(r.ServiceName),
		URLPattern:   strings.TrimSpace(r.URLPattern),
		HTTPMethod:   r.HTTPMethod,
		Description:  r.Description,
		IsPublic:     r.IsPublic,
	}
}

func (r *EndpointRequest) ToUpdate() endpoint.UpdateRequest {
	return endpoint.UpdateRequest{
		URLPattern:  strings.TrimSpace(r.URLPattern),
		HTTPMethod:  r.HTTPMethod,
		Description: r.Description,
		IsPublic:    r.IsPublic,
	}
}

func ValidateCreateEndpoint(v *validator.Validator, req *EndpointRequest) {
	v.Check(req.PermissionID != uuid.Nil, "permission_id", "must be provided")
	v.Check(validator.NotBlank(req.ServiceName), "service_name", "must be provided")
	v.Check(strings.HasPrefix(req.URLPattern, "/"), "url_pattern", "must start with /")
	v.Check(req.HTTPMethod != "", "http_method", "must be provided")
}

func ValidateUpdateEndpoint(v *validator.Validator, req *EndpointRequest) {
	if req.URLPattern != "" {
		v.Check(strings.HasPrefix(req.URLPattern, "/"), "url_pattern", "must start with /")
	}
}
