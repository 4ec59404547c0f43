package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/Temutjin2k/authhub/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/validator"
	"github.com/google/uuid"
)

type PermissionService interface {
	Create(ctx context.Context, serviceID *uuid.UUID, key, description string) (*models.Permission, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Permission, error)
	List(ctx context.Context, filter models.PermissionFilter) (models.Page[*models.Permission], error)
	Update(ctx context.Context, id uuid.UUID, description string) (*models.Permission, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Permission, error)
	Restore(ctx context.Context, id uuid.UUID) (*models.Permission, error)
}

type Permission struct {
	perms PermissionService
	l     logger.Logger
}

func NewPermission(service PermissionService, l logger.Logger) *Permission {
	return &Permission{perms: service, l: l}
}

func (h *Permission) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_permission")

	req := &dto.CreatePermissionRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateCreatePermission(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	perm, err := h.perms.Create(ctx, req.ServiceID, req.Key, req.Description)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to create permission", err)
		return
	}

	respond(ctx, w, h.l, http.StatusCreated, envelope{"permission": perm})
}

func (h *Permission) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_permissions")

	serviceID, err := queryUUID(r, "service_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	q := r.URL.Query()
	filter := models.PermissionFilter{
		ServiceID:      serviceID,
		Resource:       strings.ToLower(q.Get("resource")),
		Type:           types.DefinitionType(strings.ToUpper(q.Get("type"))),
		IncludeDeleted: q.Get("include_deleted") == "true",
		Filters:        readFilters(r, models.PermissionSortSafelist),
	}
	if !validFilters(w, filter.Filters) {
		return
	}

	page, err := h.perms.List(ctx, filter)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to list permissions", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"permissions": page.Items, "metadata": page.Metadata})
}

func (h *Permission) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_permission")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	perm, err := h.perms.Get(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to get permission", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"permission": perm})
}

func (h *Permission) Update(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_permission")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	req := &dto.DescriptionRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	v.Check(validator.MaxBytes(req.Description, 1000), "description", "must not be more than 1000 bytes long")
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	perm, err := h.perms.Update(ctx, id, req.Description)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to update permission", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"permission": perm})
}

func (h *Permission) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "delete_permission")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	perm, err := h.perms.Delete(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to delete permission", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"permission": perm})
}

func (h *Permission) Restore(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "restore_permission")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	perm, err := h.perms.Restore(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to restore permission", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"permission": perm})
}
