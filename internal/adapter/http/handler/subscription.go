package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Temutjin2k/authhub/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/validator"
	"github.com/google/uuid"
)

type SubscriptionService interface {
	Subscribe(ctx context.Context, tenantID, serviceID uuid.UUID) (*models.Subscription, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	List(ctx context.Context, filter models.SubscriptionFilter) (models.Page[*models.Subscription], error)
	ChangeStatus(ctx context.Context, id uuid.UUID, status types.Status) (*models.Subscription, error)
}

// Subscription serves the tenant to service subscriptions.
type Subscription struct {
	subscriptions SubscriptionService
	l             logger.Logger
}

func NewSubscription(service SubscriptionService, l logger.Logger) *Subscription {
	return &Subscription{subscriptions: service, l: l}
}

// Create godoc
// @Summary      Subscribe a tenant to a service
// @Tags         tenant-services
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateSubscriptionRequest  true  "subscription"
// @Success      201   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Failure      422   {object}  map[string]any
// @Router       /api/v1/auth/tenant-services [post]
func (h *Subscription) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_tenant_service")

	req := &dto.CreateSubscriptionRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateCreateSubscription(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	sub, err := h.subscriptions.Subscribe(ctx, req.TenantID, req.ServiceID)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to subscribe tenant", err)
		return
	}

	respond(ctx, w, h.l, http.StatusCreated, envelope{"tenant_service": sub})
}

func (h *Subscription) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_tenant_services")

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
	filter := models.SubscriptionFilter{
		TenantID:  tenantID,
		ServiceID: serviceID,
		Filters:   readFilters(r, models.SubscriptionSortSafelist),
	}

	// status may repeat or hold a comma separated list
	for _, raw := range q["status"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				filter.Statuses = append(filter.Statuses, types.Status(s))
			}
		}
	}

	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		s := q.Get(key)
		if s == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			badRequestResponse(w, "invalid "+key+": must be RFC3339")
			return
		}
		*dst = &ts
	}
	if !validFilters(w, filter.Filters) {
		return
	}

	page, err := h.subscriptions.List(ctx, filter)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to list tenant services", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"tenant_services": page.Items, "metadata": page.Metadata})
}

func (h *Subscription) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_tenant_service")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	sub, err := h.subscriptions.Get(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to get tenant service", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"tenant_service": sub})
}

func (h *Subscription) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "change_tenant_service_status")

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
	dto.ValidateSubscriptionStatus(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	sub, err := h.subscriptions.ChangeStatus(ctx, id, types.Status(req.Status))
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to change tenant service status", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"tenant_service": sub})
}
