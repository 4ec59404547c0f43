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

type (
	SpecService interface {
		Spec(ctx context.Context) (*models.EndpointSpec, error)
		Sync(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error)
		Match(ctx context.Context, serviceName, method, path string) (*models.PermissionEndpoint, error)
	}

	SubscriptionCatalog interface {
		ForTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Subscription, error)
	}

	TenantConfigService interface {
		Config(ctx context.Context, id uuid.UUID) (*models.TenantConfig, error)
	}

	UserAccessService interface {
		Access(ctx context.Context, id uuid.UUID) (*models.UserAccess, error)
	}

	OnboardingService interface {
		Onboard(ctx context.Context, key, tenantName, orgName string) (*models.OnboardingResult, bool, error)
	}

	PermissionCatalog interface {
		Validate(ctx context.Context, serviceName string, keys []string) (*models.PermissionValidation, error)
		RecordUsage(ctx context.Context, key, serviceName string, locations []string) (*models.PermissionUsage, error)
	}
)

// Internal serves the service-to-service API guarded by service tokens.
type Internal struct {
	specs      SpecService
	tenants    TenantConfigService
	subs       SubscriptionCatalog
	users      UserAccessService
	onboarding OnboardingService
	perms      PermissionCatalog
	l          logger.Logger
}

func NewInternal(
	specs SpecService,
	tenants TenantConfigService,
	subs SubscriptionCatalog,
	users UserAccessService,
	onboarding OnboardingService,
	perms PermissionCatalog,
	l logger.Logger,
) *Internal {
	return &Internal{
		specs:      specs,
		tenants:    tenants,
		subs:       subs,
		users:      users,
		onboarding: onboarding,
		perms:      perms,
		l:          l,
	}
}

// Spec godoc
// @Summary      Endpoint permission spec
// @Description  Snapshot of every endpoint and the permission guarding it. Honors If-None-Match.
// @Tags         internal
// @Produce      json
// @Param        X-Service-Token  header  string  true  "service token"
// @Success      200  {object}  models.EndpointSpec
// @Success      304
// @Router       /api/v1/internal/endpoint-permissions/spec [get]
func (h *Internal) Spec(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_endpoint_spec")

	spec, err := h.specs.Spec(ctx)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to build endpoint spec", err)
		return
	}

	etag := `"` + spec.Version + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	headers := http.Header{}
	headers.Set("ETag", etag)
	if err := writeJSON(w, http.StatusOK, envelope{
		"version":    spec.Version,
		"updated_at": spec.UpdatedAt,
		"endpoints":  spec.Endpoints,
	}, headers); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

func (h *Internal) TenantConfig(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_tenant_config")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	cfg, err := h.tenants.Config(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to get tenant config", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"tenant": cfg})
}

// TenantServices lists the services a tenant is actively subscribed to.
func (h *Internal) TenantServices(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_tenant_services")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	subs, err := h.subs.ForTenant(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to list tenant services", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"tenant_services": subs})
}

// MatchEndpoint godoc
// @Summary      Resolve the endpoint a request hits
// @Description  Longest matching pattern wins. service narrows the search to one service.
// @Tags         internal
// @Produce      json
// @Param        X-Service-Token  header  string  true   "service token"
// @Param        service          query   string  false  "service name"
// @Param        method           query   string  true   "HTTP method"
// @Param        path             query   string  true   "request path"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /api/v1/internal/endpoints/match [get]
func (h *Internal) MatchEndpoint(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "match_endpoint")

	q := r.URL.Query()
	method := strings.ToUpper(strings.TrimSpace(q.Get("method")))
	path := strings.TrimSpace(q.Get("path"))

	v := validator.New()
	v.Check(method != "", "method", "must be provided")
	v.Check(path != "", "path", "must be provided")
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	ep, err := h.specs.Match(ctx, strings.TrimSpace(q.Get("service")), method, path)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to match endpoint", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"endpoint": ep})
}

func (h *Internal) UserPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_user_permissions")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	access, err := h.users.Access(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to get user permissions", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{
		"user_id":     access.User.ID,
		"tenant_id":   access.User.TenantID,
		"status":      access.User.Status,
		"roles":       access.Roles,
		"permissions": access.Permissions,
	})
}

// Onboard godoc
// @Summary      Onboard a tenant
// @Description  Creates a tenant with its first organization. Replays within 24h return the stored result with 200.
// @Tags         internal
// @Accept       json
// @Produce      json
// @Param        X-Service-Token    header  string                  true  "service token"
// @Param        X-Idempotency-Key  header  string                  true  "idempotency key"
// @Param        body               body    dto.OnboardingRequest  true  "names"
// @Success      201  {object}  models.OnboardingResult
// @Success      200  {object}  models.OnboardingResult
// @Failure      409  {object}  map[string]any
// @Router       /api/v1/internal/onboarding [post]
func (h *Internal) Onboard(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "onboard_tenant")

	req := &dto.OnboardingRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateOnboarding(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	res, replayed, err := h.onboarding.Onboard(ctx, r.Header.Get(types.HeaderIdempotencyKey), req.TenantName, req.OrganizationName)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to onboard tenant", err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	respond(ctx, w, h.l, status, envelope{
		"tenant_id":       res.TenantID,
		"organization_id": res.OrganizationID,
	})
}

// Sync godoc
// @Summary      Sync service endpoints
// @Tags         internal
// @Accept       json
// @Produce      json
// @Param        X-Service-Token  header  string              true  "service token"
// @Param        body             body    models.SyncRequest  true  "endpoint inventory"
// @Success      200  {object}  models.SyncResult
// @Router       /api/v1/internal/endpoints/sync [post]
func (h *Internal) Sync(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "sync_endpoints")

	req := &models.SyncRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateSync(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	res, err := h.specs.Sync(ctx, *req)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to sync endpoints", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"result": res})
}

func (h *Internal) ValidatePermissions(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "validate_permissions")

	req := &dto.ValidatePermissionsRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateValidatePermissions(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	res, err := h.perms.Validate(ctx, req.ServiceName, req.PermissionKeys)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to validate permissions", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{
		"valid":    res.Valid,
		"existing": res.Existing,
		"missing":  res.Missing,
	})
}

func (h *Internal) RecordUsage(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "record_permission_usage")

	key := r.PathValue("key")
	if key == "" {
		badRequestResponse(w, "invalid key")
		return
	}

	req := &dto.UsageRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateUsage(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	usage, err := h.perms.RecordUsage(ctx, key, req.ServiceName, req.Locations)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to record permission usage", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"usage": usage})
}
