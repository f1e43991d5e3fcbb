package dto

import (
	"time"

	"github.com/nestmatch/nestmatch-api/internal/models"
)

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID          uint              `json:"id"`
	UserID      uint              `json:"user_id"`
	Type        string            `json:"type"`
	ReferenceID uint              `json:"reference_id"`
	Data        map[string]string `json:"data,omitempty"`
	Read        bool              `json:"is_read"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewNotificationResponse converts a notification model to its DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	var data map[string]string
	if len(model.Data) > 0 {
		data = make(map[string]string, len(model.Data))
		for key, value := range model.Data {
			if text, ok := value.(string); ok {
				data[key] = text
			}
		}
	}

	return NotificationResponse{
		ID:          model.ID,
		UserID:      model.UserID,
		Type:        model.Type,
		ReferenceID: model.ReferenceID,
		Data:        data,
		Read:        model.Read,
		CreatedAt:   model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}
