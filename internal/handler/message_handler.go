package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/nestmatch/nestmatch-api/internal/dto"
	"github.com/nestmatch/nestmatch-api/internal/service"
	"github.com/nestmatch/nestmatch-api/internal/utils"
)

// MessageHandler exposes the conversation store over REST.
type MessageHandler struct {
	conversations service.ConversationService
	validator     *validator.Validate
	logger        zerolog.Logger
}

// NewMessageHandler creates a message handler instance.
func NewMessageHandler(conversations service.ConversationService, validator *validator.Validate, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		conversations: conversations,
		validator:     validator,
		logger:        logger.With().Str("component", "message_handler").Logger(),
	}
}

// Register binds the message routes under the provided router group.
func (h *MessageHandler) Register(router fiber.Router) {
	router.Post("/", h.send)
	router.Get("/:match_id", h.history)
	router.Post("/:match_id/read", h.markRead)
}

func (h *MessageHandler) send(c *fiber.Ctx) error {
	var req dto.MessageSendRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	message, err := h.conversations.Post(requestContext(c), actorFromContext(c), req.MatchID, req.Content)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("match_id", req.MatchID).Msg("message rejected")
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
}

func (h *MessageHandler) history(c *fiber.Ctx) error {
	matchID, err := parseUintParam(c, "match_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid match id")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	query := dto.MessageHistoryQuery{Limit: limit, Offset: offset}
	if err := h.validator.Struct(query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	messages, err := h.conversations.History(requestContext(c), actorFromContext(c), matchID, query)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "message history", messages)
}

func (h *MessageHandler) markRead(c *fiber.Ctx) error {
	matchID, err := parseUintParam(c, "match_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid match id")
	}

	if err := h.conversations.MarkThreadRead(requestContext(c), actorFromContext(c), matchID); err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "conversation marked read", nil)
}
