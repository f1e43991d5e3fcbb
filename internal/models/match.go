package models

import (
	"fmt"
	"time"
)

// MatchStatus is the closed set of match states. Pending may move to
// Accepted or Rejected; both are terminal.
type MatchStatus string

const (
	MatchPending  MatchStatus = "pending"
	MatchAccepted MatchStatus = "accepted"
	MatchRejected MatchStatus = "rejected"
)

// Valid reports whether the status is one of the known states.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchPending, MatchAccepted, MatchRejected:
		return true
	}
	return false
}

// CanTransition reports whether a transition to the target status is legal.
func (s MatchStatus) CanTransition(to MatchStatus) bool {
	return s == MatchPending && (to == MatchAccepted || to == MatchRejected)
}

// Match is the mutual-acceptance record derived from a liked swipe. It gates
// chat access and carries the per-role unread bookkeeping.
//
// Uniqueness: one match per swipe, and one match per (student, listing) pair
// regardless of re-swipes. A rejected match keeps occupying the slot.
type Match struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	SwipeID            uint        `gorm:"uniqueIndex;not null" json:"swipe_id"`
	StudentID          uint        `gorm:"uniqueIndex:uq_matches_student_listing;not null" json:"student_id"`
	LandlordID         uint        `gorm:"index;not null" json:"landlord_id"`
	ListingID          uint        `gorm:"uniqueIndex:uq_matches_student_listing;not null" json:"listing_id"`
	Status             MatchStatus `gorm:"size:16;not null;default:pending" json:"status"`
	LastMessageAt      *time.Time  `json:"last_message_at"`
	LastMessagePreview string      `gorm:"size:255" json:"last_message_preview"`
	UnreadCountStudent int         `gorm:"not null;default:0" json:"unread_count_student"`
	UnreadCountLandlord int        `gorm:"not null;default:0" json:"unread_count_landlord"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// SetStatus applies a guarded state transition.
func (m *Match) SetStatus(to MatchStatus) error {
	if !to.Valid() {
		return fmt.Errorf("unknown match status %q", to)
	}
	if !m.Status.CanTransition(to) {
		return fmt.Errorf("illegal match transition %s -> %s", m.Status, to)
	}
	m.Status = to
	return nil
}

// HasParticipant reports whether the user is one of the match's two parties.
func (m Match) HasParticipant(userID uint) bool {
	return m.StudentID == userID || m.LandlordID == userID
}

// RecipientOf returns the counterpart of the given sender.
func (m Match) RecipientOf(senderID uint) uint {
	if senderID == m.StudentID {
		return m.LandlordID
	}
	return m.StudentID
}
