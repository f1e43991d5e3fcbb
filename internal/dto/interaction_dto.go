package dto

import (
	"time"

	"github.com/nestmatch/nestmatch-api/internal/models"
)

// SwipeRequest is the payload a student submits when deciding on a listing.
type SwipeRequest struct {
	ListingID uint  `json:"listing_id" validate:"required"`
	Liked     *bool `json:"liked" validate:"required"`
}

// SwipeResponse is the serialized swipe record returned after a decision.
type SwipeResponse struct {
	ID        uint      `json:"id"`
	StudentID uint      `json:"student_id"`
	ListingID uint      `json:"listing_id"`
	Liked     bool      `json:"liked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSwipeResponse converts a swipe model into its DTO.
func NewSwipeResponse(swipe models.Swipe) SwipeResponse {
	return SwipeResponse{
		ID:        swipe.ID,
		StudentID: swipe.StudentID,
		ListingID: swipe.ListingID,
		Liked:     swipe.Liked,
		CreatedAt: swipe.CreatedAt,
		UpdatedAt: swipe.UpdatedAt,
	}
}

// NewSwipeResponseSlice converts a slice of swipe models into DTOs.
func NewSwipeResponseSlice(swipes []models.Swipe) []SwipeResponse {
	out := make([]SwipeResponse, 0, len(swipes))
	for _, swipe := range swipes {
		out = append(out, NewSwipeResponse(swipe))
	}
	return out
}

// ReceivedLikeResponse is a pending like shown to the landlord, enriched with
// the listing it targets.
type ReceivedLikeResponse struct {
	SwipeResponse
	ListingTitle string `json:"listing_title"`
	ListingCity  string `json:"listing_city,omitempty"`
	StudentName  string `json:"student_name,omitempty"`
}

// MatchResponse is the serialized match record.
type MatchResponse struct {
	ID                  uint               `json:"id"`
	SwipeID             uint               `json:"swipe_id"`
	StudentID           uint               `json:"student_id"`
	LandlordID          uint               `json:"landlord_id"`
	ListingID           uint               `json:"listing_id"`
	Status              models.MatchStatus `json:"status"`
	LastMessageAt       *time.Time         `json:"last_message_at"`
	LastMessagePreview  string             `json:"last_message_preview"`
	UnreadCountStudent  int                `json:"unread_count_student"`
	UnreadCountLandlord int                `json:"unread_count_landlord"`
	CreatedAt           time.Time          `json:"created_at"`
}

// NewMatchResponse converts a match model into its DTO.
func NewMatchResponse(match models.Match) MatchResponse {
	return MatchResponse{
		ID:                  match.ID,
		SwipeID:             match.SwipeID,
		StudentID:           match.StudentID,
		LandlordID:          match.LandlordID,
		ListingID:           match.ListingID,
		Status:              match.Status,
		LastMessageAt:       match.LastMessageAt,
		LastMessagePreview:  match.LastMessagePreview,
		UnreadCountStudent:  match.UnreadCountStudent,
		UnreadCountLandlord: match.UnreadCountLandlord,
		CreatedAt:           match.CreatedAt,
	}
}

// NewMatchResponseSlice converts a slice of match models into DTOs.
func NewMatchResponseSlice(matches []models.Match) []MatchResponse {
	out := make([]MatchResponse, 0, len(matches))
	for _, match := range matches {
		out = append(out, NewMatchResponse(match))
	}
	return out
}
