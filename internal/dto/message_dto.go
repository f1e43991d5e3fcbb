package dto

import (
	"time"

	"github.com/nestmatch/nestmatch-api/internal/models"
)

// MessageSendRequest is the REST payload for posting into a conversation.
type MessageSendRequest struct {
	MatchID uint   `json:"match_id" validate:"required"`
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

// MessageHistoryQuery carries pagination for conversation history.
type MessageHistoryQuery struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

// MessageResponse is the serialized representation of a chat message.
type MessageResponse struct {
	ID        uint      `json:"id"`
	MatchID   uint      `json:"match_id"`
	SenderID  uint      `json:"sender_id"`
	Content   string    `json:"content"`
	Read      bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessageResponse converts a message model into a DTO.
func NewMessageResponse(message models.Message) MessageResponse {
	return MessageResponse{
		ID:        message.ID,
		MatchID:   message.MatchID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		Read:      message.Read,
		CreatedAt: message.CreatedAt,
	}
}

// NewMessageResponseSlice converts a slice of models into DTOs.
func NewMessageResponseSlice(messages []models.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewMessageResponse(message))
	}
	return out
}

// Websocket frame type discriminators.
const (
	FrameTypeMessage   = "message"
	FrameTypeConnected = "connected"
	FrameTypeError     = "error"
)

// ChatInboundFrame is the payload clients send over an open channel.
type ChatInboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ChatMessageFrame is the outbound frame carrying a persisted message.
type ChatMessageFrame struct {
	Type      string    `json:"type"`
	ID        uint      `json:"id"`
	SenderID  uint      `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"is_read"`
}

// NewChatMessageFrame wraps a persisted message for live delivery.
func NewChatMessageFrame(message MessageResponse) ChatMessageFrame {
	return ChatMessageFrame{
		Type:      FrameTypeMessage,
		ID:        message.ID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
		Read:      message.Read,
	}
}

// ChatConnectedFrame acknowledges a successful handshake.
type ChatConnectedFrame struct {
	Type    string `json:"type"`
	MatchID uint   `json:"match_id"`
	UserID  uint   `json:"user_id"`
}

// NewChatConnectedFrame builds the handshake acknowledgement frame.
func NewChatConnectedFrame(matchID, userID uint) ChatConnectedFrame {
	return ChatConnectedFrame{Type: FrameTypeConnected, MatchID: matchID, UserID: userID}
}

// ChatErrorFrame reports a failure back to the sender.
type ChatErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewChatErrorFrame builds an error frame.
func NewChatErrorFrame(message string) ChatErrorFrame {
	return ChatErrorFrame{Type: FrameTypeError, Message: message}
}
