package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nestmatch/nestmatch-api/internal/dto"
	"github.com/nestmatch/nestmatch-api/internal/models"
)

type conversationServiceStub struct {
	posted   []string
	failPost error
}

func (c *conversationServiceStub) Post(ctx context.Context, sender Actor, matchID uint, content string) (dto.MessageResponse, error) {
	if c.failPost != nil {
		return dto.MessageResponse{}, c.failPost
	}
	c.posted = append(c.posted, content)
	return dto.MessageResponse{
		ID:       uint(len(c.posted)),
		MatchID:  matchID,
		SenderID: sender.ID,
		Content:  content,
	}, nil
}

func (c *conversationServiceStub) MarkThreadRead(ctx context.Context, reader Actor, matchID uint) error {
	return nil
}

func (c *conversationServiceStub) History(ctx context.Context, requester Actor, matchID uint, query dto.MessageHistoryQuery) ([]dto.MessageResponse, error) {
	return nil, nil
}

func newChatFixture(t *testing.T) (*chatService, *conversationServiceStub, *matchRepoStub) {
	t.Helper()

	conversations := &conversationServiceStub{}
	matches := newMatchRepoStub()
	matches.matches[1] = models.Match{
		ID: 1, SwipeID: 5, StudentID: 1, LandlordID: 2, ListingID: 10,
		Status: models.MatchAccepted,
	}

	svc, ok := NewChatService(conversations, matches, nil, "", nil, zerolog.Nop()).(*chatService)
	require.True(t, ok)
	return svc, conversations, matches
}

func attachClient(svc *chatService, matchID, userID uint) *chatClient {
	client := &chatClient{
		send:    make(chan interface{}, chatSendBufferSize),
		options: ChatConnectionOptions{UserID: userID, MatchID: matchID},
		service: svc,
		closed:  make(chan struct{}),
		baseCtx: context.Background(),
	}
	svc.registry.register(client)
	return client
}

func TestChatRegistryBroadcastExcludesSenderSessions(t *testing.T) {
	svc, _, _ := newChatFixture(t)

	// The sender has two open sessions; neither may receive the echo.
	senderPhone := attachClient(svc, 1, 1)
	senderLaptop := attachClient(svc, 1, 1)
	recipient := attachClient(svc, 1, 2)
	otherMatch := attachClient(svc, 7, 1)

	frame := dto.ChatMessageFrame{Type: dto.FrameTypeMessage, SenderID: 1, Content: "hello"}
	svc.registry.broadcast(1, 1, frame)

	require.Len(t, recipient.send, 1)
	require.Empty(t, senderPhone.send)
	require.Empty(t, senderLaptop.send)
	require.Empty(t, otherMatch.send)
}

func TestChatRegistryUnregisterCleansEmptyMatch(t *testing.T) {
	svc, _, _ := newChatFixture(t)

	first := attachClient(svc, 1, 1)
	second := attachClient(svc, 1, 2)
	require.Equal(t, 2, svc.registry.sessions(1))

	svc.registry.unregister(first)
	require.Equal(t, 1, svc.registry.sessions(1))

	svc.registry.unregister(second)
	require.Equal(t, 0, svc.registry.sessions(1))
	require.NotContains(t, svc.registry.matches, uint(1))

	// Unregistering an already removed client is harmless.
	svc.registry.unregister(second)
}

func TestChatClientCloseIsIdempotent(t *testing.T) {
	svc, _, _ := newChatFixture(t)

	client := attachClient(svc, 1, 1)
	client.close()
	client.close()
	require.Equal(t, 0, svc.registry.sessions(1))

	// Frames offered after close are dropped without panicking.
	client.sendFrame(dto.NewChatErrorFrame("late"))
}

func TestChatServiceRoutePersistsBeforeFanout(t *testing.T) {
	svc, conversations, _ := newChatFixture(t)

	sender := attachClient(svc, 1, 1)
	recipient := attachClient(svc, 1, 2)

	svc.route(context.Background(), sender, "hello there")
	require.Equal(t, []string{"hello there"}, conversations.posted)

	require.Len(t, recipient.send, 1)
	frame, ok := (<-recipient.send).(dto.ChatMessageFrame)
	require.True(t, ok)
	require.Equal(t, dto.FrameTypeMessage, frame.Type)
	require.Equal(t, "hello there", frame.Content)
	require.Equal(t, uint(1), frame.SenderID)
	require.Empty(t, sender.send)
}

func TestChatServiceRouteFailureStaysWithSender(t *testing.T) {
	svc, conversations, _ := newChatFixture(t)
	conversations.failPost = ErrMatchNotAccepted

	sender := attachClient(svc, 1, 1)
	recipient := attachClient(svc, 1, 2)

	svc.route(context.Background(), sender, "hello there")

	// Persistence failed: the sender gets an error frame, nobody else hears it.
	require.Len(t, sender.send, 1)
	frame, ok := (<-sender.send).(dto.ChatErrorFrame)
	require.True(t, ok)
	require.Equal(t, dto.FrameTypeError, frame.Type)
	require.Equal(t, "match is not accepted", frame.Message)
	require.Empty(t, recipient.send)
}

func TestChatServiceHandleEventSkipsOwnNode(t *testing.T) {
	svc, _, _ := newChatFixture(t)
	recipient := attachClient(svc, 1, 2)

	own, err := json.Marshal(chatEvent{
		Source:  svc.nodeID,
		MatchID: 1, SenderID: 1,
		Frame: dto.ChatMessageFrame{Type: dto.FrameTypeMessage, Content: "echo"},
	})
	require.NoError(t, err)
	svc.handleEvent(own)
	require.Empty(t, recipient.send)

	remote, err := json.Marshal(chatEvent{
		Source:  "another-node",
		MatchID: 1, SenderID: 1,
		Frame: dto.ChatMessageFrame{Type: dto.FrameTypeMessage, Content: "relayed"},
	})
	require.NoError(t, err)
	svc.handleEvent(remote)
	require.Len(t, recipient.send, 1)
}

func TestChatFrameErrorMessages(t *testing.T) {
	require.Equal(t, "match not found", frameErrorMessage(ErrMatchNotFound))
	require.Equal(t, "not a participant", frameErrorMessage(ErrNotParticipant))
	require.Equal(t, "match is not accepted", frameErrorMessage(ErrMatchNotAccepted))
	require.Equal(t, "empty message", frameErrorMessage(ErrEmptyMessage))
	require.Equal(t, "failed to send message", frameErrorMessage(context.DeadlineExceeded))
}
