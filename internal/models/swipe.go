package models

import "time"

// Swipe records a student's one-shot like/dislike decision on a listing.
// At most one row exists per (student, listing); re-swiping updates the
// decision in place instead of inserting a duplicate.
type Swipe struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"uniqueIndex:uq_swipes_student_listing;not null" json:"student_id"`
	ListingID uint      `gorm:"uniqueIndex:uq_swipes_student_listing;not null" json:"listing_id"`
	Liked     bool      `gorm:"not null" json:"liked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
