package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nestmatch/nestmatch-api/internal/dto"
	"github.com/nestmatch/nestmatch-api/internal/models"
	"github.com/nestmatch/nestmatch-api/internal/repository"
)

var (
	// ErrOnlyStudentsSwipe rejects swipe operations from non-student roles.
	ErrOnlyStudentsSwipe = errors.New("only students can swipe")
	// ErrListingNotFound indicates the swiped listing does not exist.
	ErrListingNotFound = errors.New("listing not found")
	// ErrSwipeNotFound indicates the referenced swipe does not exist.
	ErrSwipeNotFound = errors.New("swipe not found")
	// ErrSwipeHasMatch blocks removal of a swipe that already produced a match.
	ErrSwipeHasMatch = errors.New("swipe already produced a match")
)

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID   uint
	Role string
}

// SwipeService is the swipe ledger: one like/dislike decision per
// (student, listing) pair, with re-swiping as the supported correction path.
type SwipeService interface {
	Record(ctx context.Context, actor Actor, req dto.SwipeRequest) (dto.SwipeResponse, error)
	Remove(ctx context.Context, actor Actor, listingID uint) error
	MyLikes(ctx context.Context, actor Actor, limit, offset int) ([]dto.SwipeResponse, error)
	ReceivedLikes(ctx context.Context, actor Actor, limit, offset int) ([]dto.ReceivedLikeResponse, error)
}

type swipeService struct {
	swipes    repository.SwipeRepository
	matches   repository.MatchRepository
	listings  repository.ListingRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSwipeService creates a swipe ledger service.
func NewSwipeService(swipes repository.SwipeRepository, matches repository.MatchRepository, listings repository.ListingRepository, validate *validator.Validate, logger zerolog.Logger) SwipeService {
	return &swipeService{
		swipes:    swipes,
		matches:   matches,
		listings:  listings,
		validator: validate,
		logger:    logger.With().Str("component", "swipe_service").Logger(),
	}
}

func (s *swipeService) Record(ctx context.Context, actor Actor, req dto.SwipeRequest) (dto.SwipeResponse, error) {
	if actor.Role != models.RoleStudent {
		return dto.SwipeResponse{}, ErrOnlyStudentsSwipe
	}

	if err := s.validator.Struct(req); err != nil {
		return dto.SwipeResponse{}, err
	}

	if _, err := s.listings.FindByID(ctx, req.ListingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SwipeResponse{}, ErrListingNotFound
		}
		return dto.SwipeResponse{}, err
	}

	swipe, err := s.swipes.Upsert(ctx, &models.Swipe{
		StudentID: actor.ID,
		ListingID: req.ListingID,
		Liked:     *req.Liked,
	})
	if err != nil {
		return dto.SwipeResponse{}, err
	}

	s.logger.Info().
		Uint("student_id", actor.ID).
		Uint("listing_id", req.ListingID).
		Bool("liked", swipe.Liked).
		Msg("swipe recorded")

	return dto.NewSwipeResponse(swipe), nil
}

func (s *swipeService) Remove(ctx context.Context, actor Actor, listingID uint) error {
	if actor.Role != models.RoleStudent {
		return ErrOnlyStudentsSwipe
	}

	swipe, err := s.swipes.FindByStudentListing(ctx, actor.ID, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSwipeNotFound
		}
		return err
	}

	// A matched relationship is dissolved through rejection, not ledger deletion.
	if _, err := s.matches.FindBySwipeID(ctx, swipe.ID); err == nil {
		return ErrSwipeHasMatch
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.swipes.Delete(ctx, swipe.ID)
}

func (s *swipeService) MyLikes(ctx context.Context, actor Actor, limit, offset int) ([]dto.SwipeResponse, error) {
	if actor.Role != models.RoleStudent {
		return nil, ErrOnlyStudentsSwipe
	}

	swipes, err := s.swipes.ListLikedByStudent(ctx, actor.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewSwipeResponseSlice(swipes), nil
}

func (s *swipeService) ReceivedLikes(ctx context.Context, actor Actor, limit, offset int) ([]dto.ReceivedLikeResponse, error) {
	if actor.Role != models.RoleLandlord {
		return nil, ErrOnlyLandlordsDecide
	}

	rows, err := s.swipes.ListPendingReceived(ctx, actor.ID, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ReceivedLikeResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.ReceivedLikeResponse{
			SwipeResponse: dto.NewSwipeResponse(row.Swipe),
			ListingTitle:  row.ListingTitle,
			ListingCity:   row.ListingCity,
			StudentName:   row.StudentName,
		})
	}
	return out, nil
}
