package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/nestmatch/nestmatch-api/internal/dto"
	"github.com/nestmatch/nestmatch-api/internal/middleware"
	"github.com/nestmatch/nestmatch-api/internal/service"
)

// ChatHandler owns the websocket upgrade for live conversations. The token
// travels in the query string because browsers cannot set headers on
// websocket dials; it is verified after the upgrade so that failures can be
// reported in-band as an error frame before the close.
type ChatHandler struct {
	service   service.ChatService
	jwtSecret string
	logger    zerolog.Logger
}

// NewChatHandler creates a chat handler instance.
func NewChatHandler(service service.ChatService, jwtSecret string, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service:   service,
		jwtSecret: jwtSecret,
		logger:    logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register binds the websocket route under the provided router group.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Use("/:match_id", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/:match_id", websocket.New(h.handleConnection))
}

func (h *ChatHandler) handleConnection(conn *websocket.Conn) {
	matchID, err := strconv.ParseUint(strings.TrimSpace(conn.Params("match_id")), 10, 64)
	if err != nil {
		h.refuse(conn, "invalid match id")
		return
	}

	token := strings.TrimSpace(conn.Query("token"))
	if token == "" {
		h.refuse(conn, "token required")
		return
	}

	userID, _, err := middleware.ParseUserToken(h.jwtSecret, token)
	if err != nil {
		h.refuse(conn, "invalid token")
		return
	}

	correlation := ""
	if value, ok := conn.Locals("correlation_id").(string); ok {
		correlation = value
	}
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	opts := service.ChatConnectionOptions{
		UserID:        userID,
		MatchID:       uint(matchID),
		CorrelationID: correlation,
		Context:       baseCtx,
	}

	h.logger.Info().Uint("user_id", userID).Uint64("match_id", matchID).Msg("chat websocket connected")
	h.service.ServeConnection(conn, opts)
	h.logger.Info().Uint("user_id", userID).Uint64("match_id", matchID).Msg("chat websocket disconnected")
}

// refuse reports the handshake failure in-band, then terminates.
func (h *ChatHandler) refuse(conn *websocket.Conn, reason string) {
	_ = conn.WriteJSON(dto.NewChatErrorFrame(reason))
	_ = conn.Close()
}
