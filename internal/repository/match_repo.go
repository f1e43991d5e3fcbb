package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nestmatch/nestmatch-api/internal/models"
)

// MatchRepository persists match records. Both uniqueness invariants (one
// match per swipe, one per student/listing pair) live in the schema so that
// concurrent creators lose with gorm.ErrDuplicatedKey rather than silently
// duplicating.
type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	FindByID(ctx context.Context, id uint) (models.Match, error)
	FindBySwipeID(ctx context.Context, swipeID uint) (models.Match, error)
	ListAcceptedByUser(ctx context.Context, userID uint, asLandlord bool, limit, offset int) ([]models.Match, error)
}

type matchRepository struct {
	db *gorm.DB
}

// NewMatchRepository constructs a match repository backed by GORM.
func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Create(ctx context.Context, match *models.Match) error {
	return r.db.WithContext(ctx).Create(match).Error
}

func (r *matchRepository) FindByID(ctx context.Context, id uint) (models.Match, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).First(&match, id).Error; err != nil {
		return models.Match{}, err
	}
	return match, nil
}

func (r *matchRepository) FindBySwipeID(ctx context.Context, swipeID uint) (models.Match, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).Where("swipe_id = ?", swipeID).First(&match).Error; err != nil {
		return models.Match{}, err
	}
	return match, nil
}

func (r *matchRepository) ListAcceptedByUser(ctx context.Context, userID uint, asLandlord bool, limit, offset int) ([]models.Match, error) {
	limit = normalizeLimit(limit)
	if offset < 0 {
		offset = 0
	}

	column := "student_id"
	if asLandlord {
		column = "landlord_id"
	}

	var matches []models.Match
	err := r.db.WithContext(ctx).
		Where(column+" = ? AND status = ?", userID, models.MatchAccepted).
		Order("COALESCE(last_message_at, created_at) DESC").
		Offset(offset).
		Limit(limit).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}
