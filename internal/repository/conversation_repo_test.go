package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nestmatch/nestmatch-api/internal/models"
)

func TestConversationRepositoryPostMessageIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()

	match := models.Match{SwipeID: 1, StudentID: 1, LandlordID: 2, ListingID: 10, Status: models.MatchAccepted}
	require.NoError(t, db.Create(&match).Error)

	message := models.Message{MatchID: match.ID, SenderID: 1, Content: "hello"}
	notification := models.Notification{UserID: 2, Type: models.NotificationNewMessage, ReferenceID: match.ID}
	require.NoError(t, repo.PostMessage(ctx, &message, "hello", true, &notification))
	require.NotZero(t, message.ID)

	var stored models.Match
	require.NoError(t, db.First(&stored, match.ID).Error)
	require.NotNil(t, stored.LastMessageAt)
	require.Equal(t, "hello", stored.LastMessagePreview)
	require.Equal(t, 1, stored.UnreadCountLandlord)
	require.Equal(t, 0, stored.UnreadCountStudent)

	var notifCount int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ?", 2).Count(&notifCount).Error)
	require.Equal(t, int64(1), notifCount)
}

func TestConversationRepositoryCountersTrackSenders(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()

	match := models.Match{SwipeID: 1, StudentID: 1, LandlordID: 2, ListingID: 10, Status: models.MatchAccepted}
	require.NoError(t, db.Create(&match).Error)

	for i := 0; i < 3; i++ {
		message := models.Message{MatchID: match.ID, SenderID: 1, Content: fmt.Sprintf("from student %d", i)}
		notif := models.Notification{UserID: 2, Type: models.NotificationNewMessage, ReferenceID: match.ID}
		require.NoError(t, repo.PostMessage(ctx, &message, message.Content, true, &notif))
	}
	reply := models.Message{MatchID: match.ID, SenderID: 2, Content: "from landlord"}
	notif := models.Notification{UserID: 1, Type: models.NotificationNewMessage, ReferenceID: match.ID}
	require.NoError(t, repo.PostMessage(ctx, &reply, reply.Content, false, &notif))

	landlordUnread, err := repo.CountUnread(ctx, match.ID, true)
	require.NoError(t, err)
	require.Equal(t, 3, landlordUnread)

	studentUnread, err := repo.CountUnread(ctx, match.ID, false)
	require.NoError(t, err)
	require.Equal(t, 1, studentUnread)

	require.NoError(t, repo.ResetUnread(ctx, match.ID, true))

	landlordUnread, err = repo.CountUnread(ctx, match.ID, true)
	require.NoError(t, err)
	require.Equal(t, 0, landlordUnread)

	studentUnread, err = repo.CountUnread(ctx, match.ID, false)
	require.NoError(t, err)
	require.Equal(t, 1, studentUnread, "resetting one side leaves the other untouched")
}

func TestConversationRepositoryListByMatchIsChronological(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()

	match := models.Match{SwipeID: 1, StudentID: 1, LandlordID: 2, ListingID: 10, Status: models.MatchAccepted}
	require.NoError(t, db.Create(&match).Error)

	for i := 1; i <= 5; i++ {
		message := models.Message{MatchID: match.ID, SenderID: 1, Content: fmt.Sprintf("msg %d", i)}
		notif := models.Notification{UserID: 2, Type: models.NotificationNewMessage, ReferenceID: match.ID}
		require.NoError(t, repo.PostMessage(ctx, &message, message.Content, true, &notif))
	}

	messages, err := repo.ListByMatch(ctx, match.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, messages, 5)
	for i, message := range messages {
		require.Equal(t, fmt.Sprintf("msg %d", i+1), message.Content, "oldest first, no gaps")
	}

	page, err := repo.ListByMatch(ctx, match.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "msg 4", page[0].Content, "latest page, chronological inside the page")
	require.Equal(t, "msg 5", page[1].Content)
}
