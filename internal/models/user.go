package models

import "time"

// User roles. Every account carries exactly one role.
const (
	RoleStudent  = "student"
	RoleLandlord = "landlord"
)

// User represents an authenticated account. The matching core treats users
// as read-only identity records resolved from the token claims.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:320;uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Role      string    `gorm:"size:16;index;not null;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsStudent reports whether the user swipes on listings.
func (u User) IsStudent() bool {
	return u.Role == RoleStudent
}

// IsLandlord reports whether the user reviews incoming likes.
func (u User) IsLandlord() bool {
	return u.Role == RoleLandlord
}
