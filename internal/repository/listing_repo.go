package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nestmatch/nestmatch-api/internal/models"
)

// ListingRepository is a read-only view over listings. The matching core
// only consults ownership and display fields.
type ListingRepository interface {
	FindByID(ctx context.Context, id uint) (models.Listing, error)
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository constructs a listing repository backed by GORM.
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) FindByID(ctx context.Context, id uint) (models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).First(&listing, id).Error; err != nil {
		return models.Listing{}, err
	}
	return listing, nil
}
