package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types emitted by the matching core.
const (
	NotificationMatchCreated  = "match_created"
	NotificationMatchRejected = "match_rejected"
	NotificationNewMessage    = "new_message"
)

// Notification is an append-only, user-addressed event record. ReferenceID
// points at the match that caused it; Data carries optional display
// enrichment (actor name, listing title). Rows are never mutated except for
// the Read flag.
type Notification struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	UserID      uint              `gorm:"index;not null" json:"user_id"`
	Type        string            `gorm:"size:64;not null" json:"type"`
	ReferenceID uint              `gorm:"index" json:"reference_id"`
	Data        datatypes.JSONMap `gorm:"type:json" json:"data,omitempty"`
	Read        bool              `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
