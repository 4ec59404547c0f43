package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
)

type AuditService interface {
	Search(ctx context.Context, filter models.AuditFilter) (models.Page[*models.AuditLog], error)
}

type Audit struct {
	audit AuditService
	l     logger.Logger
}

func NewAudit(service AuditService, l logger.Logger) *Audit {
	return &Audit{audit: service, l: l}
}

// Search godoc
// @Summary      Search audit logs
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        user_id        query  string  false  "user id"
// @Param        action_type    query  string  false  "LOGIN, CREATE, ..."
// @Param        resource_type  query  string  false  "TENANT, USER, ..."
// @Param        from           query  string  false  "RFC3339 lower bound"
// @Param        to             query  string  false  "RFC3339 upper bound"
// @Success      200  {object}  map[string]any
// @Router       /api/v1/auth/audit-logs [get]
func (h *Audit) Search(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "search_audit_logs")

	q := r.URL.Query()
	filter := models.AuditFilter{
		UserID:       q.Get("user_id"),
		ActionType:   models.ActionType(strings.ToUpper(q.Get("action_type"))),
		ResourceType: models.ResourceType(strings.ToUpper(q.Get("resource_type"))),
		ResourceID:   q.Get("resource_id"),
		IP:           q.Get("ip"),
		Filters:      readFilters(r, models.AuditSortSafelist),
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

	page, err := h.audit.Search(ctx, filter)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to search audit logs", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"audit_logs": page.Items, "metadata": page.Metadata})
}
