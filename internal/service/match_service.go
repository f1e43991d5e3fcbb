package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/nestmatch/nestmatch-api/internal/dto"
	"github.com/nestmatch/nestmatch-api/internal/models"
	"github.com/nestmatch/nestmatch-api/internal/repository"
)

var (
	// ErrOnlyLandlordsDecide rejects match decisions from non-landlord roles.
	ErrOnlyLandlordsDecide = errors.New("only landlords can decide on swipes")
	// ErrNotListingOwner rejects decisions on swipes targeting someone else's listing.
	ErrNotListingOwner = errors.New("listing belongs to another landlord")
	// ErrSwipeNotLiked rejects match creation from a dislike.
	ErrSwipeNotLiked = errors.New("swipe is not a like")
	// ErrMatchExists indicates the swipe or pairing already has a match.
	ErrMatchExists = errors.New("match already exists")
	// ErrMatchNotFound indicates the referenced match does not exist.
	ErrMatchNotFound = errors.New("match not found")
)

// MatchService drives the match state machine: a landlord decision over a
// pending like inserts a terminal-state match and notifies the student.
type MatchService interface {
	Accept(ctx context.Context, actor Actor, swipeID uint) (dto.MatchResponse, error)
	Reject(ctx context.Context, actor Actor, swipeID uint) (dto.MatchResponse, error)
	List(ctx context.Context, actor Actor, limit, offset int) ([]dto.MatchResponse, error)
}

type matchService struct {
	matches       repository.MatchRepository
	swipes        repository.SwipeRepository
	listings      repository.ListingRepository
	users         repository.UserRepository
	notifications NotificationService
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewMatchService creates a match state machine service.
func NewMatchService(matches repository.MatchRepository, swipes repository.SwipeRepository, listings repository.ListingRepository, users repository.UserRepository, notifications NotificationService, logger zerolog.Logger) MatchService {
	return &matchService{
		matches:       matches,
		swipes:        swipes,
		listings:      listings,
		users:         users,
		notifications: notifications,
		logger:        logger.With().Str("component", "match_service").Logger(),
		tracer:        otel.Tracer("github.com/nestmatch/nestmatch-api/internal/service/match"),
	}
}

func (s *matchService) Accept(ctx context.Context, actor Actor, swipeID uint) (dto.MatchResponse, error) {
	return s.decide(ctx, actor, swipeID, models.MatchAccepted)
}

func (s *matchService) Reject(ctx context.Context, actor Actor, swipeID uint) (dto.MatchResponse, error) {
	return s.decide(ctx, actor, swipeID, models.MatchRejected)
}

func (s *matchService) decide(ctx context.Context, actor Actor, swipeID uint, outcome models.MatchStatus) (dto.MatchResponse, error) {
	if actor.Role != models.RoleLandlord {
		return dto.MatchResponse{}, ErrOnlyLandlordsDecide
	}

	spanCtx, span := s.tracer.Start(ctx, "match.decide", trace.WithAttributes(
		attribute.Int64("match.swipe_id", int64(swipeID)),
		attribute.String("match.outcome", string(outcome)),
	))
	defer span.End()

	swipe, err := s.swipes.FindByID(spanCtx, swipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MatchResponse{}, ErrSwipeNotFound
		}
		return dto.MatchResponse{}, err
	}

	listing, err := s.listings.FindByID(spanCtx, swipe.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MatchResponse{}, ErrListingNotFound
		}
		return dto.MatchResponse{}, err
	}
	if listing.LandlordID != actor.ID {
		return dto.MatchResponse{}, ErrNotListingOwner
	}

	if !swipe.Liked {
		return dto.MatchResponse{}, ErrSwipeNotLiked
	}

	match := models.Match{
		SwipeID:    swipe.ID,
		StudentID:  swipe.StudentID,
		LandlordID: actor.ID,
		ListingID:  swipe.ListingID,
		Status:     models.MatchPending,
	}
	if err := match.SetStatus(outcome); err != nil {
		return dto.MatchResponse{}, err
	}

	// The schema's unique indexes decide the race: of two concurrent
	// decisions on the same swipe or pairing, exactly one row lands.
	if err := s.matches.Create(spanCtx, &match); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.MatchResponse{}, ErrMatchExists
		}
		span.RecordError(err)
		return dto.MatchResponse{}, err
	}

	notificationType := models.NotificationMatchCreated
	if outcome == models.MatchRejected {
		notificationType = models.NotificationMatchRejected
	}
	if _, err := s.notifications.Emit(spanCtx, swipe.StudentID, notificationType, match.ID, s.enrichment(spanCtx, actor.ID, listing)); err != nil {
		s.logger.Warn().Err(err).Uint("match_id", match.ID).Msg("failed to emit match notification")
	}

	s.logger.Info().
		Uint("match_id", match.ID).
		Uint("swipe_id", swipe.ID).
		Str("status", string(match.Status)).
		Msg("match decided")

	return dto.NewMatchResponse(match), nil
}

// enrichment gathers optional display fields; lookups are best-effort and
// never block the decision.
func (s *matchService) enrichment(ctx context.Context, landlordID uint, listing models.Listing) map[string]string {
	data := map[string]string{"listing_title": listing.Title}
	if landlord, err := s.users.FindByID(ctx, landlordID); err == nil {
		data["landlord_name"] = landlord.Name
	}
	return data
}

func (s *matchService) List(ctx context.Context, actor Actor, limit, offset int) ([]dto.MatchResponse, error) {
	matches, err := s.matches.ListAcceptedByUser(ctx, actor.ID, actor.Role == models.RoleLandlord, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewMatchResponseSlice(matches), nil
}
