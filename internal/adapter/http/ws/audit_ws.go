package wshandler

import (
	"context"
	"net/http"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/metrics"
	ws "github.com/Temutjin2k/authhub/pkg/wsHub"
	"github.com/gorilla/websocket"
)

const pingInterval = 30 * time.Second

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

// AuditStream pushes audit entries to super admins as they are recorded.
// Entries reach the hub through the audit recorder's broadcaster.
type AuditStream struct {
	hub         *ws.ConnectionHub
	auth        Authenticator
	upgrader    websocket.Upgrader
	serviceName string
	l           logger.Logger
}

func NewAuditStream(hub *ws.ConnectionHub, auth Authenticator, serviceName string, l logger.Logger) *AuditStream {
	return &AuditStream{
		hub:  hub,
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The token check replaces the origin check.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		serviceName: serviceName,
		l:           l,
	}
}

func (h *AuditStream) Serve(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "audit_stream")

	principal := models.PrincipalFromContext(ctx)
	if !principal.IsAuthenticated() {
		token := bearerOrQuery(r)
		if token == "" {
			httpError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		p, err := h.auth.Authenticate(ctx, token)
		if err != nil {
			h.l.Warn(wrap.ErrorCtx(ctx, err), "rejected audit stream subscriber", "error", err.Error())
			httpError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		principal = p
	}
	if !principal.IsSuperAdmin() {
		httpError(w, http.StatusForbidden, "access denied")
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.l.Warn(ctx, "failed to upgrade audit stream", "error", err.Error())
		return
	}

	// The request context ends with the handler, the connection outlives it.
	conn := ws.NewConn(context.WithoutCancel(ctx), principal.LogID(), raw)
	if err := h.hub.Add(conn); err != nil {
		_ = errorResponse(conn, "server is shutting down")
		_ = conn.Close()
		return
	}
	metrics.WebSocketConnectionsGauge.WithLabelValues(h.serviceName).Inc()

	go h.keepAlive(ctx, conn)
	go func() {
		defer func() {
			metrics.WebSocketConnectionsGauge.WithLabelValues(h.serviceName).Dec()
			if err := h.hub.Delete(conn.ID()); err != nil {
				h.l.Debug(ctx, "audit subscriber already removed", "conn_id", conn.ID().String())
			}
		}()

		// Subscribers only receive. Reading drives control frames and notices
		// the client going away.
		if err := conn.Listen(func(map[string]any) error { return nil }); err != nil {
			h.l.Debug(ctx, "audit subscriber disconnected", "conn_id", conn.ID().String(), "reason", err.Error())
		}
	}()

	h.l.Info(ctx, "audit subscriber connected", "conn_id", conn.ID().String(), "subscribers", h.hub.Len())
}

func (h *AuditStream) keepAlive(ctx context.Context, conn *ws.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-conn.Done():
			return
		case <-ticker.C:
			if err := conn.Health(); err != nil {
				h.l.Debug(ctx, "audit subscriber ping failed", "conn_id", conn.ID().String(), "error", err.Error())
				_ = h.hub.Delete(conn.ID())
				return
			}
		}
	}
}
