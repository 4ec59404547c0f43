package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/Temutjin2k/authhub/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/internal/service/role"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/validator"
	"github.com/google/uuid"
)

type RoleService interface {
	Create(ctx context.Context, req role.CreateRequest) (*models.Role, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Role, error)
	List(ctx context.Context, filter models.RoleFilter) (models.Page[*models.Role], error)
	Update(ctx context.Context, id uuid.UUID, displayName, description string) (*models.Role, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Role, error)

	GrantPermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) (int, error)
	RevokePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) (int, error)
	ListPermissions(ctx context.Context, roleID uuid.UUID) ([]*models.Permission, error)

	AssignRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) (int, error)
	RevokeRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) (int, error)
	ListUserRoles(ctx context.Context, userID uuid.UUID) ([]*models.Role, error)
}

type Role struct {
	roles RoleService
	l     logger.Logger
}

func NewRole(service RoleService, l logger.Logger) *Role {
	return &Role{roles: service, l: l}
}

func (h *Role) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_role")

	req := &dto.CreateRoleRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateCreateRole(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	created, err := h.roles.Create(ctx, req.ToModel())
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to create role", err)
		return
	}

	respond(ctx, w, h.l, http.StatusCreated, envelope{"role": created})
}

func (h *Role) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_roles")

	tenantID, err := queryUUID(r, "tenant_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}
	serviceID, err := queryUUID(r, "service_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	q := r.URL.Query()
	filter := models.RoleFilter{
		TenantID:   tenantID,
		ServiceID:  serviceID,
		Name:       strings.ToUpper(q.Get("name")),
		Type:       types.DefinitionType(strings.ToUpper(q.Get("type"))),
		WithGlobal: q.Get("with_global") != "false",
		Filters:    readFilters(r, models.RoleSortSafelist),
	}
	if !validFilters(w, filter.Filters) {
		return
	}

	page, err := h.roles.List(ctx, filter)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to list roles", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"roles": page.Items, "metadata": page.Metadata})
}

func (h *Role) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_role")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	found, err := h.roles.Get(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to get role", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"role": found})
}

func (h *Role) Update(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_role")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	req := &dto.UpdateRoleRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateUpdateRole(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	updated, err := h.roles.Update(ctx, id, strings.TrimSpace(req.DisplayName), req.Description)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to update role", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"role": updated})
}

func (h *Role) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "delete_role")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	deleted, err := h.roles.Delete(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to delete role", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"role": deleted})
}

func (h *Role) ListPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_role_permissions")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	perms, err := h.roles.ListPermissions(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to list role permissions", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"permissions": perms})
}

func (h *Role) GrantPermissions(w http.ResponseWriter, r *http.Request) {
	h.changeGrants(w, r, "grant_role_permissions", h.roles.GrantPermissions, "granted")
}

func (h *Role) RevokePermissions(w http.ResponseWriter, r *http.Request) {
	h.changeGrants(w, r, "revoke_role_permissions", h.roles.RevokePermissions, "revoked")
}

func (h *Role) ListUserRoles(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_user_roles")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	roles, err := h.roles.ListUserRoles(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to list user roles", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"roles": roles})
}

func (h *Role) AssignUserRoles(w http.ResponseWriter, r *http.Request) {
	h.changeGrants(w, r, "assign_user_roles", h.roles.AssignRoles, "assigned")
}

func (h *Role) RevokeUserRoles(w http.ResponseWriter, r *http.Request) {
	h.changeGrants(w, r, "revoke_user_roles", h.roles.RevokeRoles, "revoked")
}

// changeGrants handles the bulk link endpoints: the path {id} is the owner
// and the body carries the ids to link or unlink.
func (h *Role) changeGrants(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	apply func(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int, error),
	verb string,
) {
	ctx := wrap.WithAction(r.Context(), action)

	id, ok := readID(w, r)
	if !ok {
		return
	}

	req := &dto.IDsRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateIDs(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	n, err := apply(ctx, id, req.IDs)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to "+strings.ReplaceAll(action, "_", " "), err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{verb: n})
}
