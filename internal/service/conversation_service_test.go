package service

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nestmatch/nestmatch-api/internal/dto"
	"github.com/nestmatch/nestmatch-api/internal/models"
)

func newConversationFixture() (*conversationRepoStub, *matchRepoStub, *notificationServiceStub, ConversationService) {
	conversations := &conversationRepoStub{}
	matches := newMatchRepoStub()
	matches.matches[1] = models.Match{
		ID: 1, SwipeID: 5, StudentID: 1, LandlordID: 2, ListingID: 10,
		Status: models.MatchAccepted,
	}
	matches.matches[2] = models.Match{
		ID: 2, SwipeID: 6, StudentID: 1, LandlordID: 2, ListingID: 11,
		Status: models.MatchPending,
	}
	users := &userRepoStub{users: map[uint]models.User{
		1: {ID: 1, Name: "Mara", Role: models.RoleStudent},
		2: {ID: 2, Name: "Joris", Role: models.RoleLandlord},
	}}
	notifications := &notificationServiceStub{}

	svc := NewConversationService(conversations, matches, users, notifications, zerolog.Nop())
	return conversations, matches, notifications, svc
}

func TestConversationServicePostPersistsAndAnnounces(t *testing.T) {
	conversations, _, notifications, svc := newConversationFixture()
	student := Actor{ID: 1, Role: models.RoleStudent}

	message, err := svc.Post(context.Background(), student, 1, "  Is the room still free?  ")
	require.NoError(t, err)
	require.Equal(t, "Is the room still free?", message.Content)
	require.Equal(t, uint(1), message.MatchID)
	require.Equal(t, uint(1), message.SenderID)

	require.Equal(t, "Is the room still free?", conversations.lastPreview)
	require.True(t, conversations.lastToLandlord)

	require.Len(t, conversations.notifications, 1)
	stored := conversations.notifications[0]
	require.Equal(t, uint(2), stored.UserID)
	require.Equal(t, models.NotificationNewMessage, stored.Type)
	require.Equal(t, uint(1), stored.ReferenceID)
	require.Equal(t, "Mara", stored.Data["sender_name"])

	// The live push reuses the row persisted inside the transaction.
	require.Len(t, notifications.announced, 1)
	require.Equal(t, stored.ID, notifications.announced[0].ID)
}

func TestConversationServicePostRejectsOutsiders(t *testing.T) {
	_, _, _, svc := newConversationFixture()

	_, err := svc.Post(context.Background(), Actor{ID: 9, Role: models.RoleStudent}, 1, "hi")
	require.ErrorIs(t, err, ErrNotParticipant)
}

func TestConversationServicePostRequiresAcceptedMatch(t *testing.T) {
	_, _, notifications, svc := newConversationFixture()

	_, err := svc.Post(context.Background(), Actor{ID: 1, Role: models.RoleStudent}, 2, "hi")
	require.ErrorIs(t, err, ErrMatchNotAccepted)
	require.Empty(t, notifications.announced)

	_, err = svc.Post(context.Background(), Actor{ID: 1, Role: models.RoleStudent}, 42, "hi")
	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestConversationServicePostRejectsEmptyAfterSanitize(t *testing.T) {
	conversations, _, _, svc := newConversationFixture()

	_, err := svc.Post(context.Background(), Actor{ID: 1, Role: models.RoleStudent}, 1, "<script>alert('x')</script>")
	require.ErrorIs(t, err, ErrEmptyMessage)
	require.Empty(t, conversations.messages)
}

func TestConversationServicePostFailureSkipsAnnounce(t *testing.T) {
	conversations, _, notifications, svc := newConversationFixture()
	conversations.failPost = context.DeadlineExceeded

	_, err := svc.Post(context.Background(), Actor{ID: 1, Role: models.RoleStudent}, 1, "hello")
	require.Error(t, err)
	require.Empty(t, notifications.announced)
}

func TestConversationServicePreviewTruncation(t *testing.T) {
	conversations, _, _, svc := newConversationFixture()

	content := strings.Repeat("ë", 300)
	message, err := svc.Post(context.Background(), Actor{ID: 2, Role: models.RoleLandlord}, 1, content)
	require.NoError(t, err)

	// Preview truncates at 255 characters, not bytes; the message keeps full length.
	require.Equal(t, 255, len([]rune(conversations.lastPreview)))
	require.Equal(t, strings.Repeat("ë", 255), conversations.lastPreview)
	require.Equal(t, content, message.Content)
	require.False(t, conversations.lastToLandlord)
}

func TestConversationServiceMarkThreadReadTargetsReaderSide(t *testing.T) {
	conversations, _, _, svc := newConversationFixture()

	require.NoError(t, svc.MarkThreadRead(context.Background(), Actor{ID: 2, Role: models.RoleLandlord}, 1))
	require.NoError(t, svc.MarkThreadRead(context.Background(), Actor{ID: 1, Role: models.RoleStudent}, 1))
	require.Equal(t, []bool{true, false}, conversations.resetCalls)

	err := svc.MarkThreadRead(context.Background(), Actor{ID: 9, Role: models.RoleStudent}, 1)
	require.ErrorIs(t, err, ErrNotParticipant)
}

func TestConversationServiceHistoryOrdering(t *testing.T) {
	_, _, _, svc := newConversationFixture()
	student := Actor{ID: 1, Role: models.RoleStudent}

	for _, text := range []string{"first", "second", "third"} {
		_, err := svc.Post(context.Background(), student, 1, text)
		require.NoError(t, err)
	}

	history, err := svc.History(context.Background(), student, 1, dto.MessageHistoryQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, "first", history[0].Content)
	require.Equal(t, "third", history[2].Content)

	_, err = svc.History(context.Background(), Actor{ID: 9}, 1, dto.MessageHistoryQuery{})
	require.ErrorIs(t, err, ErrNotParticipant)
}
