package wshandler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	ws "github.com/Temutjin2k/authhub/pkg/wsHub"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct{}

func (fakeAuth) Authenticate(_ context.Context, token string) (*models.Principal, error) {
	switch token {
	case "admin":
		return &models.Principal{UserID: uuid.New(), Roles: []string{types.RoleSuperAdmin}}, nil
	case "user":
		return &models.Principal{UserID: uuid.New(), Roles: []string{types.RoleUser}}, nil
	default:
		return nil, errors.New("invalid token")
	}
}

func startStream(t *testing.T) (*ws.ConnectionHub, string) {
	t.Helper()

	l := logger.New(io.Discard, "test", logger.LevelError)
	hub := ws.NewConnHub(l)
	srv := httptest.NewServer(http.HandlerFunc(NewAuditStream(hub, fakeAuth{}, "test", l).Serve))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestAuditStream_Broadcast(t *testing.T) {
	hub, url := startStream(t)

	client, _, err := websocket.DefaultDialer.Dial(url+"?token=admin", nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	entry := &models.AuditLog{ID: uuid.New(), ActionType: models.ActionLogin, UserID: "u-1"}
	assert.Equal(t, 1, hub.Broadcast(entry))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got models.AuditLog
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, models.ActionLogin, got.ActionType)
}

func TestAuditStream_Rejects(t *testing.T) {
	_, url := startStream(t)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"bad token", "?token=nope", http.StatusUnauthorized},
		{"not super admin", "?token=user", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(url+tt.query, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestBearerOrQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws/audit?token=q", nil)
	assert.Equal(t, "q", bearerOrQuery(r))

	r.Header.Set("Authorization", "Bearer h")
	assert.Equal(t, "h", bearerOrQuery(r))

	r.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, bearerOrQuery(r))
}
