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

type TenantService interface {
	Create(ctx context.Context, name string) (*models.Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	List(ctx context.Context, filter models.TenantFilter) (models.Page[*models.Tenant], error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*models.Tenant, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, status types.Status) (*models.Tenant, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type Tenant struct {
	tenants TenantService
	l       logger.Logger
}

func NewTenant(service TenantService, l logger.Logger) *Tenant {
	return &Tenant{tenants: service, l: l}
}

// Create godoc
// @Summary      Create a tenant
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.NameRequest  true  "tenant"
// @Success      201   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /api/v1/auth/tenants [post]
func (h *Tenant) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_tenant")

	req := &dto.NameRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateName(v, req.Name)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	tenant, err := h.tenants.Create(ctx, req.Name)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to create tenant", err)
		return
	}

	respond(ctx, w, h.l, http.StatusCreated, envelope{"tenant": tenant})
}

func (h *Tenant) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_tenants")

	q := r.URL.Query()
	filter := models.TenantFilter{
		Name:    q.Get("name"),
		Status:  types.Status(strings.ToUpper(q.Get("status"))),
		Filters: readFilters(r, models.TenantSortSafelist),
	}
	if !validFilters(w, filter.Filters) {
		return
	}

	page, err := h.tenants.List(ctx, filter)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to list tenants", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"tenants": page.Items, "metadata": page.Metadata})
}

func (h *Tenant) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_tenant")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	tenant, err := h.tenants.Get(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to get tenant", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"tenant": tenant})
}

func (h *Tenant) Update(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_tenant")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	req := &dto.NameRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateName(v, req.Name)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	tenant, err := h.tenants.Rename(ctx, id, req.Name)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to update tenant", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"tenant": tenant})
}

func (h *Tenant) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "change_tenant_status")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	req := &dto.StatusRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}
	req.Status = strings.ToUpper(req.Status)

	v := validator.New()
	dto.ValidateLifecycleStatus(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	tenant, err := h.tenants.ChangeStatus(ctx, id, types.Status(req.Status))
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to change tenant status", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"tenant": tenant})
}

func (h *Tenant) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "delete_tenant")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	tenant, err := h.tenants.Delete(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to delete tenant", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"tenant": tenant})
}
