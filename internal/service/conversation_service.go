package service

import (
	"context"
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nestmatch/nestmatch-api/internal/dto"
	"github.com/nestmatch/nestmatch-api/internal/models"
	"github.com/nestmatch/nestmatch-api/internal/observability"
	"github.com/nestmatch/nestmatch-api/internal/repository"
)

// previewLength is the hard truncation applied to the match's last-message
// preview, counted in characters.
const previewLength = 255

var (
	// ErrNotParticipant rejects conversation access from users outside the match.
	ErrNotParticipant = errors.New("not a participant in this match")
	// ErrMatchNotAccepted blocks messaging on pending or rejected matches.
	ErrMatchNotAccepted = errors.New("match is not accepted")
	// ErrEmptyMessage rejects messages with no content after sanitization.
	ErrEmptyMessage = errors.New("message content is empty")
)

// ConversationService owns the ordered message log per match and its
// read/unread bookkeeping.
type ConversationService interface {
	Post(ctx context.Context, sender Actor, matchID uint, content string) (dto.MessageResponse, error)
	MarkThreadRead(ctx context.Context, reader Actor, matchID uint) error
	History(ctx context.Context, requester Actor, matchID uint, query dto.MessageHistoryQuery) ([]dto.MessageResponse, error)
}

type conversationService struct {
	conversations repository.ConversationRepository
	matches       repository.MatchRepository
	users         repository.UserRepository
	notifications NotificationService
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewConversationService creates a conversation store service.
func NewConversationService(conversations repository.ConversationRepository, matches repository.MatchRepository, users repository.UserRepository, notifications NotificationService, logger zerolog.Logger) ConversationService {
	sanitizer := bluemonday.StrictPolicy()

	return &conversationService{
		conversations: conversations,
		matches:       matches,
		users:         users,
		notifications: notifications,
		sanitizer:     sanitizer,
		logger:        logger.With().Str("component", "conversation_service").Logger(),
		tracer:        otel.Tracer("github.com/nestmatch/nestmatch-api/internal/service/conversation"),
	}
}

func (s *conversationService) Post(ctx context.Context, sender Actor, matchID uint, content string) (dto.MessageResponse, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return dto.MessageResponse{}, err
	}

	if !match.HasParticipant(sender.ID) {
		return dto.MessageResponse{}, ErrNotParticipant
	}
	if match.Status != models.MatchAccepted {
		return dto.MessageResponse{}, ErrMatchNotAccepted
	}

	clean := strings.TrimSpace(s.sanitizer.Sanitize(content))
	if clean == "" {
		return dto.MessageResponse{}, ErrEmptyMessage
	}

	spanCtx, span := s.tracer.Start(ctx, "conversation.post", trace.WithAttributes(
		attribute.Int64("match.id", int64(matchID)),
		attribute.Int64("message.sender_id", int64(sender.ID)),
	))
	defer span.End()

	recipientID := match.RecipientOf(sender.ID)
	message := models.Message{
		MatchID:  match.ID,
		SenderID: sender.ID,
		Content:  clean,
	}
	notification := models.Notification{
		UserID:      recipientID,
		Type:        models.NotificationNewMessage,
		ReferenceID: match.ID,
		Data:        s.senderData(spanCtx, sender.ID),
	}

	// Message, match metadata, unread counter and notification commit together.
	err = s.conversations.PostMessage(spanCtx, &message, truncatePreview(clean), recipientID == match.LandlordID, &notification)
	if err != nil {
		span.RecordError(err)
		return dto.MessageResponse{}, err
	}

	s.notifications.Announce(notification)
	observability.ChatMessagesSent().Inc()

	return dto.NewMessageResponse(message), nil
}

func (s *conversationService) MarkThreadRead(ctx context.Context, reader Actor, matchID uint) error {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return err
	}

	if !match.HasParticipant(reader.ID) {
		return ErrNotParticipant
	}

	return s.conversations.ResetUnread(ctx, match.ID, reader.ID == match.LandlordID)
}

func (s *conversationService) History(ctx context.Context, requester Actor, matchID uint, query dto.MessageHistoryQuery) ([]dto.MessageResponse, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if !match.HasParticipant(requester.ID) {
		return nil, ErrNotParticipant
	}

	messages, err := s.conversations.ListByMatch(ctx, match.ID, query.Limit, query.Offset)
	if err != nil {
		return nil, err
	}

	return dto.NewMessageResponseSlice(messages), nil
}

func (s *conversationService) loadMatch(ctx context.Context, matchID uint) (models.Match, error) {
	match, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Match{}, ErrMatchNotFound
		}
		return models.Match{}, err
	}
	return match, nil
}

// senderData resolves the sender's display name for notification
// enrichment; the lookup is best-effort.
func (s *conversationService) senderData(ctx context.Context, senderID uint) datatypes.JSONMap {
	if user, err := s.users.FindByID(ctx, senderID); err == nil {
		return datatypes.JSONMap{"sender_name": user.Name}
	}
	return nil
}

func truncatePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength])
}
