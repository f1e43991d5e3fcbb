package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nestmatch/nestmatch-api/internal/models"
)

// ConversationRepository owns the per-match message log and its unread
// bookkeeping. PostMessage applies the message insert, the match metadata
// update, the recipient's counter increment and the notification row as one
// transaction; partial application would desynchronize counters from the log.
type ConversationRepository interface {
	PostMessage(ctx context.Context, message *models.Message, preview string, recipientIsLandlord bool, notification *models.Notification) error
	ListByMatch(ctx context.Context, matchID uint, limit, offset int) ([]models.Message, error)
	ResetUnread(ctx context.Context, matchID uint, forLandlord bool) error
	CountUnread(ctx context.Context, matchID uint, forLandlord bool) (int, error)
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository constructs a conversation repository backed by GORM.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) PostMessage(ctx context.Context, message *models.Message, preview string, recipientIsLandlord bool, notification *models.Notification) error {
	counter := "unread_count_student"
	if recipientIsLandlord {
		counter = "unread_count_landlord"
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"last_message_at":      time.Now().UTC(),
			"last_message_preview": preview,
			counter:                gorm.Expr(counter+" + ?", 1),
		}
		if err := tx.Model(&models.Match{}).Where("id = ?", message.MatchID).Updates(updates).Error; err != nil {
			return err
		}

		return tx.Create(notification).Error
	})
}

func (r *conversationRepository) ListByMatch(ctx context.Context, matchID uint, limit, offset int) ([]models.Message, error) {
	limit = normalizeLimit(limit)
	if offset < 0 {
		offset = 0
	}

	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Newest page first internally, chronological for callers.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *conversationRepository) ResetUnread(ctx context.Context, matchID uint, forLandlord bool) error {
	counter := "unread_count_student"
	if forLandlord {
		counter = "unread_count_landlord"
	}

	return r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ?", matchID).
		Update(counter, 0).Error
}

func (r *conversationRepository) CountUnread(ctx context.Context, matchID uint, forLandlord bool) (int, error) {
	counter := "unread_count_student"
	if forLandlord {
		counter = "unread_count_landlord"
	}

	var match models.Match
	if err := r.db.WithContext(ctx).Select(counter).First(&match, matchID).Error; err != nil {
		return 0, err
	}

	if forLandlord {
		return match.UnreadCountLandlord, nil
	}
	return match.UnreadCountStudent, nil
}
