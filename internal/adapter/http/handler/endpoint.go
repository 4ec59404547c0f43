package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/Temutjin2k/authhub/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/service/endpoint"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/validator"
	"github.com/google/uuid"
)

type EndpointService interface {
	Create(ctx context.Context, req endpoint.CreateRequest) (*models.PermissionEndpoint, error)
	List(ctx context.Context, filter models.EndpointFilter) (models.Page[*models.PermissionEndpoint], error)
	Update(ctx context.Context, id uuid.UUID, req endpoint.UpdateRequest) (*models.PermissionEndpoint, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.PermissionEndpoint, error)
}

type Endpoint struct {
	endpoints EndpointService
	l         logger.Logger
}

func NewEndpoint(service EndpointService, l logger.Logger) *Endpoint {
	return &Endpoint{endpoints: service, l: l}
}

func (h *Endpoint) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_permission_endpoint")

	req := &dto.EndpointRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateCreateEndpoint(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	ep, err := h.endpoints.Create(ctx, req.ToCreate())
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to create permission endpoint", err)
		return
	}

	respond(ctx, w, h.l, http.StatusCreated, envelope{"endpoint": ep})
}

func (h *Endpoint) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_permission_endpoints")

	permissionID, err := queryUUID(r, "permission_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	q := r.URL.Query()
	filter := models.EndpointFilter{
		ServiceName:  q.Get("service_name"),
		PermissionID: permissionID,
		Method:       strings.ToUpper(q.Get("method")),
		Filters:      readFilters(r, models.EndpointSortSafelist),
	}
	if s := q.Get("is_public"); s != "" {
		public, err := strconv.ParseBool(s)
		if err != nil {
			badRequestResponse(w, "invalid is_public")
			return
		}
		filter.IsPublic = &public
	}
	if !validFilters(w, filter.Filters) {
		return
	}

	page, err := h.endpoints.List(ctx, filter)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to list permission endpoints", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"endpoints": page.Items, "metadata": page.Metadata})
}

func (h *Endpoint) Update(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_permission_endpoint")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	req := &dto.EndpointRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateUpdateEndpoint(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	ep, err := h.endpoints.Update(ctx, id, req.ToUpdate())
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to update permission endpoint", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"endpoint": ep})
}

func (h *Endpoint) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "delete_permission_endpoint")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	ep, err := h.endpoints.Delete(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to delete permission endpoint", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"endpoint": ep})
}
