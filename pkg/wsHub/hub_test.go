package ws

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Temutjin2k/authhub/pkg/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubServer(t *testing.T, hub *ConnectionHub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewConn(context.Background(), r.URL.Query().Get("owner"), wsConn)
		if err := hub.Add(c); err != nil {
			_ = c.Close()
			return
		}
		_ = c.Listen(func(map[string]any) error { return nil })
		_ = hub.Delete(c.ID())
	}))
}

func dial(t *testing.T, srv *httptest.Server, owner string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?owner=" + owner
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewConnHub(logger.New(io.Discard, "test", logger.LevelError))
	srv := newHubServer(t, hub)
	defer srv.Close()

	a := dial(t, srv, "a")
	b := dial(t, srv, "b")

	require.Eventually(t, func() bool { return hub.Len() == 2 }, time.Second, 10*time.Millisecond)

	delivered := hub.Broadcast(map[string]any{"type": "audit", "n": 1})
	assert.Equal(t, 2, delivered)

	for _, c := range []*websocket.Conn{a, b} {
		var msg map[string]any
		require.NoError(t, c.SetReadDeadline(time.Now().Add(time.Second)))
		require.NoError(t, c.ReadJSON(&msg))
		assert.Equal(t, "audit", msg["type"])
	}
}

func TestHub_CloseRejectsNewConnections(t *testing.T) {
	hub := NewConnHub(logger.New(io.Discard, "test", logger.LevelError))
	hub.Close()

	err := hub.Add(&Conn{})
	assert.ErrorIs(t, err, ErrHubClosed)
	assert.ErrorIs(t, hub.Add(nil), ErrEmptyConn)
	assert.ErrorIs(t, hub.Delete(uuid.Nil), ErrConnIsNotFound)
}
