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

type OrganizationService interface {
	Create(ctx context.Context, tenantID uuid.UUID, name string) (*models.Organization, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	List(ctx context.Context, filter models.OrganizationFilter) (models.Page[*models.Organization], error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*models.Organization, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, status types.Status) (*models.Organization, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type Organization struct {
	orgs OrganizationService
	l    logger.Logger
}

func NewOrganization(service OrganizationService, l logger.Logger) *Organization {
	return &Organization{orgs: service, l: l}
}

func (h *Organization) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_organization")

	req := &dto.CreateOrganizationRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateCreateOrganization(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	org, err := h.orgs.Create(ctx, req.TenantID, req.Name)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to create organization", err)
		return
	}

	respond(ctx, w, h.l, http.StatusCreated, envelope{"organization": org})
}

func (h *Organization) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_organizations")

	tenantID, err := queryUUID(r, "tenant_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	q := r.URL.Query()
	filter := models.OrganizationFilter{
		TenantID: tenantID,
		Name:     q.Get("name"),
		Status:   types.Status(strings.ToUpper(q.Get("status"))),
		Filters:  readFilters(r, models.OrganizationSortSafelist),
	}
	if !validFilters(w, filter.Filters) {
		return
	}

	page, err := h.orgs.List(ctx, filter)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to list organizations", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"organizations": page.Items, "metadata": page.Metadata})
}

func (h *Organization) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_organization")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	org, err := h.orgs.Get(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to get organization", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"organization": org})
}

func (h *Organization) Update(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_organization")

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

	org, err := h.orgs.Rename(ctx, id, req.Name)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to update organization", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"organization": org})
}

func (h *Organization) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "change_organization_status")

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

	org, err := h.orgs.ChangeStatus(ctx, id, types.Status(req.Status))
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to change organization status", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"organization": org})
}

func (h *Organization) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "delete_organization")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	org, err := h.orgs.Delete(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to delete organization", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"organization": org})
}
