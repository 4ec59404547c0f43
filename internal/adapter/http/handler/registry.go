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

type RegistryService interface {
	Create(ctx context.Context, code, name, description string) (*models.Service, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Service, error)
	List(ctx context.Context, filter models.ServiceFilter) (models.Page[*models.Service], error)
	Update(ctx context.Context, id uuid.UUID, name, description string) (*models.Service, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, status types.ServiceStatus) (*models.Service, error)
}

// Registry serves the catalogue of services that own permissions.
type Registry struct {
	services RegistryService
	l        logger.Logger
}

func NewRegistry(service RegistryService, l logger.Logger) *Registry {
	return &Registry{services: service, l: l}
}

func (h *Registry) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_service")

	req := &dto.CreateServiceRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateCreateService(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	svc, err := h.services.Create(ctx, strings.ToUpper(strings.TrimSpace(req.Code)), strings.TrimSpace(req.Name), req.Description)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to create service", err)
		return
	}

	respond(ctx, w, h.l, http.StatusCreated, envelope{"service": svc})
}

func (h *Registry) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_services")

	q := r.URL.Query()
	filter := models.ServiceFilter{
		Name:    q.Get("name"),
		Status:  types.ServiceStatus(strings.ToUpper(q.Get("status"))),
		Filters: readFilters(r, models.ServiceSortSafelist),
	}
	if !validFilters(w, filter.Filters) {
		return
	}

	page, err := h.services.List(ctx, filter)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to list services", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"services": page.Items, "metadata": page.Metadata})
}

func (h *Registry) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_service")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	svc, err := h.services.Get(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to get service", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"service": svc})
}

func (h *Registry) Update(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_service")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	req := &dto.UpdateServiceRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	v.Check(validator.MaxBytes(req.Name, 255), "name", "must not be more than 255 bytes long")
	v.Check(validator.MaxBytes(req.Description, 1000), "description", "must not be more than 1000 bytes long")
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	svc, err := h.services.Update(ctx, id, strings.TrimSpace(req.Name), req.Description)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to update service", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"service": svc})
}

func (h *Registry) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "change_service_status")

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
	dto.ValidateServiceStatus(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	svc, err := h.services.ChangeStatus(ctx, id, types.ServiceStatus(req.Status))
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to change service status", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"service": svc})
}
