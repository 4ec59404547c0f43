package dto

import (
	"testing"

	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/validator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateCreateUser(t *testing.T) {
	valid := func() *CreateUserRequest {
		return &CreateUserRequest{
			TenantID:       uuid.New(),
			OrganizationID: uuid.New(),
			Email:          "ana@acme.kz",
			Password:       "hunter22",
		}
	}

	tests := []struct {
		name   string
		mutate func(r *CreateUserRequest)
		field  string
	}{
		{"valid", func(*CreateUserRequest) {}, ""},
		{"missing tenant", func(r *CreateUserRequest) { r.TenantID = uuid.Nil }, "tenant_id"},
		{"bad email", func(r *CreateUserRequest) { r.Email = "ana" }, "email"},
		{"short password", func(r *CreateUserRequest) { r.Password = "a1" }, "password"},
		{"password without digit", func(r *CreateUserRequest) { r.Password = "onlyletters" }, "password"},
		{"unknown type", func(r *CreateUserRequest) { r.Type = "robot" }, "type"},
		{"bad phone", func(r *CreateUserRequest) { r.Phone = "call me" }, "phone"},
		{"duplicate roles", func(r *CreateUserRequest) {
			id := uuid.New()
			r.RoleIDs = []uuid.UUID{id, id}
		}, "role_ids"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)

			v := validator.New()
			ValidateCreateUser(v, req)

			if tt.field == "" {
				assert.True(t, v.Valid(), v.Errors)
				return
			}
			assert.Contains(t, v.Errors, tt.field)
		})
	}
}

func TestCreateUserRequest_ToModel(t *testing.T) {
	req := &CreateUserRequest{Email: "  ana@acme.kz ", Name: " Ana "}
	m := req.ToModel()
	assert.Equal(t, types.UserTypePublic, m.Type)
	assert.Equal(t, "ana@acme.kz", m.Email)
	assert.Equal(t, "Ana", m.Name)

	req.Type = "internal"
	assert.Equal(t, types.UserTypeInternal, req.ToModel().Type)
}

func TestValidateIDs(t *testing.T) {
	v := validator.New()
	ValidateIDs(v, &IDsRequest{})
	assert.Contains(t, v.Errors, "ids")

	ids := make([]uuid.UUID, 101)
	for i := range ids {
		ids[i] = uuid.New()
	}
	v = validator.New()
	ValidateIDs(v, &IDsRequest{IDs: ids})
	assert.Contains(t, v.Errors, "ids")

	v = validator.New()
	ValidateIDs(v, &IDsRequest{IDs: ids[:3]})
	assert.True(t, v.Valid())
}

func TestCreateRole(t *testing.T) {
	req := &CreateRoleRequest{Name: " billing_admin "}

	v := validator.New()
	ValidateCreateRole(v, req)
	assert.True(t, v.Valid(), v.Errors)
	assert.Equal(t, "BILLING_ADMIN", req.ToModel().Name)

	v = validator.New()
	ValidateCreateRole(v, &CreateRoleRequest{Name: "has space"})
	assert.Contains(t, v.Errors, "name")
}

func TestValidateCreatePermission(t *testing.T) {
	v := validator.New()
	ValidateCreatePermission(v, &CreatePermissionRequest{Key: "invoice:read"})
	assert.True(t, v.Valid(), v.Errors)

	v = validator.New()
	ValidateCreatePermission(v, &CreatePermissionRequest{Key: "invoice"})
	assert.Contains(t, v.Errors, "key")
}

func TestValidateStatus(t *testing.T) {
	v := validator.New()
	ValidateLifecycleStatus(v, &StatusRequest{Status: "SUSPENDED"})
	assert.Contains(t, v.Errors, "status")

	v = validator.New()
	ValidateUserStatus(v, &StatusRequest{Status: "SUSPENDED"})
	assert.True(t, v.Valid())
}
