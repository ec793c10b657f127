package websocket

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/infrastructure"
)

// UpgradeConfig controls the /ws endpoint.
type UpgradeConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	// AllowedOrigins lists browser origins accepted in production.
	AllowedOrigins []string
	// AllowAllOrigins disables the origin check, for development.
	AllowAllOrigins bool
}

// NewHandler returns the HTTP handler that upgrades requests and attaches them to hub.
func NewHandler(hub *Hub, cfg UpgradeConfig) http.HandlerFunc {
	logger := hub.logger.With(slog.String("component", "websocket.handler"))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Same-origin and non-browser clients send no Origin header.
			if origin == "" || cfg.AllowAllOrigins {
				return true
			}
			if slices.Contains(cfg.AllowedOrigins, "*") || slices.Contains(cfg.AllowedOrigins, origin) {
				return true
			}
			logger.WarnContext(r.Context(), "WebSocket origin check - origin not allowed",
				slog.String("origin", origin))
			return false
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		traceID := infrastructure.GetTraceID(r.Context())
		if traceID == "" {
			traceID = r.Header.Get("X-Request-ID")
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}
		ctx := infrastructure.WithTraceID(r.Context(), traceID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written an HTTP error response.
			logger.ErrorContext(ctx, "WebSocket upgrade failed",
				slog.String("error", err.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			return
		}

		logger.InfoContext(ctx, "WebSocket connection established",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("user_agent", r.UserAgent()))

		NewClient(hub, conn, r.RemoteAddr, traceID).Serve()
	}
}
