package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/nestmatch/nestmatch-api/internal/dto"
	"github.com/nestmatch/nestmatch-api/internal/middleware"
	"github.com/nestmatch/nestmatch-api/internal/models"
	"github.com/nestmatch/nestmatch-api/internal/service"
	"github.com/nestmatch/nestmatch-api/internal/utils"
)

// InteractionHandler exposes the swipe ledger and the match state machine.
type InteractionHandler struct {
	swipes  service.SwipeService
	matches service.MatchService
	logger  zerolog.Logger
}

// NewInteractionHandler creates an interaction handler instance.
func NewInteractionHandler(swipes service.SwipeService, matches service.MatchService, logger zerolog.Logger) *InteractionHandler {
	return &InteractionHandler{
		swipes:  swipes,
		matches: matches,
		logger:  logger.With().Str("component", "interaction_handler").Logger(),
	}
}

// Register binds the interaction routes under the provided router group.
func (h *InteractionHandler) Register(router fiber.Router) {
	studentOnly := middleware.RequireRole(models.RoleStudent)
	landlordOnly := middleware.RequireRole(models.RoleLandlord)

	router.Post("/swipe", studentOnly, h.swipe)
	router.Delete("/swipe/:listing_id", studentOnly, h.removeSwipe)
	router.Get("/my-likes", studentOnly, h.myLikes)
	router.Get("/landlord/received-likes", landlordOnly, h.receivedLikes)
	router.Post("/landlord/accept-swipe/:swipe_id", landlordOnly, h.acceptSwipe)
	router.Post("/landlord/reject-swipe/:swipe_id", landlordOnly, h.rejectSwipe)
	router.Get("/matches", middleware.RequireRole(models.RoleStudent, models.RoleLandlord), h.listMatches)
}

func (h *InteractionHandler) swipe(c *fiber.Ctx) error {
	var req dto.SwipeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	swipe, err := h.swipes.Record(requestContext(c), actorFromContext(c), req)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("swipe rejected")
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "swipe recorded", swipe)
}

func (h *InteractionHandler) removeSwipe(c *fiber.Ctx) error {
	listingID, err := parseUintParam(c, "listing_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid listing id")
	}

	if err := h.swipes.Remove(requestContext(c), actorFromContext(c), listingID); err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "swipe removed", nil)
}

func (h *InteractionHandler) myLikes(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	likes, err := h.swipes.MyLikes(requestContext(c), actorFromContext(c), limit, offset)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "liked listings", likes)
}

func (h *InteractionHandler) receivedLikes(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	likes, err := h.swipes.ReceivedLikes(requestContext(c), actorFromContext(c), limit, offset)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "received likes", likes)
}

func (h *InteractionHandler) acceptSwipe(c *fiber.Ctx) error {
	return h.decide(c, h.matches.Accept, "match accepted")
}

func (h *InteractionHandler) rejectSwipe(c *fiber.Ctx) error {
	return h.decide(c, h.matches.Reject, "match rejected")
}

func (h *InteractionHandler) decide(c *fiber.Ctx, decision func(ctx context.Context, actor service.Actor, swipeID uint) (dto.MatchResponse, error), message string) error {
	swipeID, err := parseUintParam(c, "swipe_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid swipe id")
	}

	match, err := decision(requestContext(c), actorFromContext(c), swipeID)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("swipe_id", swipeID).Msg("match decision rejected")
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, message, match)
}

func (h *InteractionHandler) listMatches(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	matches, err := h.matches.List(requestContext(c), actorFromContext(c), limit, offset)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	return utils.SendSuccess(c, "matches", matches)
}
