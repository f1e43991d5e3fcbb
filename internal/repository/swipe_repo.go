package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nestmatch/nestmatch-api/internal/models"
)

// ReceivedLike is a pending like on one of a landlord's listings, joined with
// display fields for the review screen.
type ReceivedLike struct {
	models.Swipe
	ListingTitle string
	ListingCity  string
	StudentName  string
}

// SwipeRepository persists swipe decisions. The (student_id, listing_id)
// unique index guarantees at most one row per pair; Upsert folds a re-swipe
// into an in-place decision update.
type SwipeRepository interface {
	Upsert(ctx context.Context, swipe *models.Swipe) (models.Swipe, error)
	FindByID(ctx context.Context, id uint) (models.Swipe, error)
	FindByStudentListing(ctx context.Context, studentID, listingID uint) (models.Swipe, error)
	Delete(ctx context.Context, id uint) error
	ListLikedByStudent(ctx context.Context, studentID uint, limit, offset int) ([]models.Swipe, error)
	ListPendingReceived(ctx context.Context, landlordID uint, limit, offset int) ([]ReceivedLike, error)
}

type swipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository constructs a swipe repository backed by GORM.
func NewSwipeRepository(db *gorm.DB) SwipeRepository {
	return &swipeRepository{db: db}
}

func (r *swipeRepository) Upsert(ctx context.Context, swipe *models.Swipe) (models.Swipe, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "listing_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"liked", "updated_at"}),
	}).Create(swipe).Error
	if err != nil {
		return models.Swipe{}, err
	}

	// The insert path populates swipe.ID; the conflict path does not on every
	// dialect, so re-read the authoritative row.
	return r.FindByStudentListing(ctx, swipe.StudentID, swipe.ListingID)
}

func (r *swipeRepository) FindByID(ctx context.Context, id uint) (models.Swipe, error) {
	var swipe models.Swipe
	if err := r.db.WithContext(ctx).First(&swipe, id).Error; err != nil {
		return models.Swipe{}, err
	}
	return swipe, nil
}

func (r *swipeRepository) FindByStudentListing(ctx context.Context, studentID, listingID uint) (models.Swipe, error) {
	var swipe models.Swipe
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND listing_id = ?", studentID, listingID).
		First(&swipe).Error
	if err != nil {
		return models.Swipe{}, err
	}
	return swipe, nil
}

func (r *swipeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Swipe{}, id).Error
}

func (r *swipeRepository) ListLikedByStudent(ctx context.Context, studentID uint, limit, offset int) ([]models.Swipe, error) {
	limit = normalizeLimit(limit)
	if offset < 0 {
		offset = 0
	}

	var swipes []models.Swipe
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND liked = ?", studentID, true).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&swipes).Error
	if err != nil {
		return nil, err
	}
	return swipes, nil
}

func (r *swipeRepository) ListPendingReceived(ctx context.Context, landlordID uint, limit, offset int) ([]ReceivedLike, error) {
	limit = normalizeLimit(limit)
	if offset < 0 {
		offset = 0
	}

	var rows []ReceivedLike
	err := r.db.WithContext(ctx).
		Model(&models.Swipe{}).
		Select("swipes.*, listings.title AS listing_title, listings.city AS listing_city, users.name AS student_name").
		Joins("JOIN listings ON listings.id = swipes.listing_id").
		Joins("LEFT JOIN users ON users.id = swipes.student_id").
		Where("listings.landlord_id = ? AND swipes.liked = ?", landlordID, true).
		Where("NOT EXISTS (SELECT 1 FROM matches WHERE matches.swipe_id = swipes.id)").
		Order("swipes.created_at DESC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}
