package wshandler

import (
	"net/http"
	"strings"

	ws "github.com/Temutjin2k/authhub/pkg/wsHub"
)

func errorResponse(conn *ws.Conn, message any) error {
	return conn.Send(
		map[string]any{
			"error": message,
		})
}

// httpError is used before the upgrade, while the connection is still HTTP.
func httpError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + strings.ReplaceAll(message, `"`, `'`) + `"}`))
}

// bearerOrQuery returns the token from the Authorization header or the
// token query parameter. Browsers cannot set headers on websocket dials.
func bearerOrQuery(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
