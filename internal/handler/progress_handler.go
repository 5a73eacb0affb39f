package handler

import (
	"os"

	"regen-advisor-be/internal/pkg/logger"
	internalWS "regen-advisor-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ProgressHandler exposes the websocket endpoint that streams pipeline stage
// transitions for one advisor session.
type ProgressHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewProgressHandler(hub *internalWS.Hub, log logger.ILogger) *ProgressHandler {
	return &ProgressHandler{
		hub:    hub,
		logger: log,
	}
}

func (h *ProgressHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/progress/:sessionId", h.ServeWs)
}

// ServeWs authenticates the handshake and upgrades it to a watcher
// connection. Browsers cannot set headers on websocket handshakes, so the
// token may arrive as the "token" query param instead of Authorization.
func (h *ProgressHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("ProgressHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionId, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("ProgressHandler", "Watcher connected", map[string]interface{}{"session_id": sessionId.String()})
			internalWS.ServeWs(h.hub, conn, sessionId.String())
			h.logger.Info("ProgressHandler", "Watcher disconnected", map[string]interface{}{"session_id": sessionId.String()})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}
