package dto

import (
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/validator"
	"github.com/google/uuid"
)

type CreateSubscriptionRequest struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	ServiceID uuid.UUID `json:"service_id"`
}

func ValidateCreateSubscription(v *validator.Validator, req *CreateSubscriptionRequest) {
	v.Check(req.TenantID != uuid.Nil, "tenant_id", "must be provided")
	v.Check(req.ServiceID != uuid.Nil, "service_id", "must be provided")
}

func ValidateSubscriptionStatus(v *validator.Validator, req *StatusRequest) {
	v.Check(validator.PermittedValue(types.Status(req.Status), types.StatusActive, types.StatusInactive, types.StatusSuspended),
		"status", "must be one of ACTIVE, INACTIVE, SUSPENDED")
}
