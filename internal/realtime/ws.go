package realtime

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	jwtsvc "bookswap/internal/pkg/jwt"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,

	// Allow all origins for dev; tighten behind a reverse proxy in production.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades authenticated clients onto the change feed.
type WSHandler struct {
	hub *Hub
	jwt *jwtsvc.Service
}

func NewWSHandler(hub *Hub, jwt *jwtsvc.Service) *WSHandler {
	return &WSHandler{hub: hub, jwt: jwt}
}

// HandleWebSocket serves the change feed socket.
//
// Endpoint: GET /ws/events?token=JWT_TOKEN&resources=notifications,exchange_requests
//
// The token rides in the query because browsers cannot set headers on a
// websocket dial. An empty resources list subscribes to everything.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Token is required. Use ?token=YOUR_JWT_TOKEN",
		})
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid or expired token",
		})
		return
	}

	resources := parseResourceList(c.Query("resources"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	slog.Info("user connected to change feed", "user_id", claims.UserID)
	h.hub.ServeWS(conn, claims.UserID, resources)
	slog.Info("user disconnected from change feed", "user_id", claims.UserID)
}

func parseResourceList(raw string) []Resource {
	if raw == "" {
		return nil
	}
	var out []Resource
	for _, s := range strings.Split(raw, ",") {
		if res, ok := ParseResource(strings.TrimSpace(s)); ok {
			out = append(out, res)
		}
	}
	return out
}

// RegisterRoutes registers the websocket endpoint.
func RegisterRoutes(r *gin.Engine, handler *WSHandler) {
	r.GET("/ws/events", handler.HandleWebSocket)
}
