package models

import "time"

// Listing is a rental property owned by exactly one landlord. The matching
// core only reads LandlordID for ownership checks; listing management lives
// elsewhere.
type Listing struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LandlordID uint      `gorm:"index;not null" json:"landlord_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	City       string    `gorm:"size:128" json:"city"`
	Price      int       `json:"price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
