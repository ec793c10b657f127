package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHandlerStreamsPipelineEvents(t *testing.T) {
	hub := startHub(t, HubConfig{})
	server := httptest.NewServer(NewHandler(hub, UpgradeConfig{ReadBufferSize: 1024, WriteBufferSize: 1024}))
	defer server.Close()

	header := http.Header{}
	header.Set("X-Request-ID", "req-42")
	conn, _, err := websocket.DefaultDialer.Dial(dialURL(server), header)
	require.NoError(t, err)
	defer conn.Close()

	greeting := readMessage(t, conn)
	assert.Equal(t, TypeConnection, greeting.Type)
	assert.Equal(t, "req-42", greeting.TraceID)

	hub.Broadcast("store.reset", map[string]int{"removed": 2})

	event := readMessage(t, conn)
	assert.Equal(t, "store.reset", event.Type)
	assert.Equal(t, map[string]interface{}{"removed": float64(2)}, event.Data)
	assert.NotEmpty(t, event.Timestamp)
}

func TestHandlerOriginCheck(t *testing.T) {
	tests := []struct {
		name    string
		cfg     UpgradeConfig
		origin  string
		allowed bool
	}{
		{"listed origin", UpgradeConfig{AllowedOrigins: []string{"http://localhost:3000"}}, "http://localhost:3000", true},
		{"unlisted origin", UpgradeConfig{AllowedOrigins: []string{"http://localhost:3000"}}, "http://evil.example", false},
		{"wildcard", UpgradeConfig{AllowedOrigins: []string{"*"}}, "http://evil.example", true},
		{"development", UpgradeConfig{AllowAllOrigins: true}, "http://evil.example", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := startHub(t, HubConfig{})
			server := httptest.NewServer(NewHandler(hub, tt.cfg))
			defer server.Close()

			header := http.Header{}
			header.Set("Origin", tt.origin)
			conn, resp, err := websocket.DefaultDialer.Dial(dialURL(server), header)
			if tt.allowed {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}
