package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nestmatch/nestmatch-api/internal/dto"
	"github.com/nestmatch/nestmatch-api/internal/models"
	"github.com/nestmatch/nestmatch-api/internal/observability"
	"github.com/nestmatch/nestmatch-api/internal/repository"
)

const chatSendBufferSize = 32

// ChatConnectionOptions wraps metadata extracted during the HTTP upgrade.
type ChatConnectionOptions struct {
	UserID        uint
	MatchID       uint
	CorrelationID string
	Context       context.Context
}

// ChatService is the live connection registry: an in-memory directory of open
// websocket sessions keyed by (match, participant). Inbound frames are
// persisted through the conversation store before any fan-out; live delivery
// is at-most-once and best-effort, durability comes from persistence plus
// notifications.
type ChatService interface {
	ServeConnection(conn *websocket.Conn, opts ChatConnectionOptions)
	Start(ctx context.Context)
}

type chatService struct {
	conversations ConversationService
	matches       repository.MatchRepository
	redis         *redis.Client
	redisStream   string
	nats          *nats.Conn
	natsSubject   string
	logger        zerolog.Logger
	registry      *chatRegistry
	nodeID        string
}

// chatRegistry tracks active websocket clients per match and handles
// fan-out. All mutations of a match's entry are serialized behind the lock.
type chatRegistry struct {
	mu      sync.RWMutex
	matches map[uint]map[*chatClient]struct{}
	log     zerolog.Logger
}

type chatClient struct {
	conn    *websocket.Conn
	send    chan interface{}
	options ChatConnectionOptions
	service *chatService
	closed  chan struct{}
	once    sync.Once
	baseCtx context.Context
}

type chatEvent struct {
	Source   string               `json:"source"`
	MatchID  uint                 `json:"match_id"`
	SenderID uint                 `json:"sender_id"`
	Frame    dto.ChatMessageFrame `json:"frame"`
	SentAt   time.Time            `json:"sent_at"`
}

// NewChatService creates the live connection registry. Redis and NATS relay
// frames between nodes; both are optional.
func NewChatService(conversations ConversationService, matches repository.MatchRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) ChatService {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":chat"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".chat"
	}

	return &chatService{
		conversations: conversations,
		matches:       matches,
		redis:         redisClient,
		redisStream:   stream,
		nats:          natsConn,
		natsSubject:   subject,
		logger:        logger.With().Str("component", "chat_service").Logger(),
		registry: &chatRegistry{
			matches: make(map[uint]map[*chatClient]struct{}),
			log:     logger.With().Str("component", "chat_registry").Logger(),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *chatService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *chatService) ServeConnection(conn *websocket.Conn, opts ChatConnectionOptions) {
	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	if err := s.authorize(baseCtx, opts); err != nil {
		// Explicit error frame before termination.
		_ = conn.WriteJSON(dto.NewChatErrorFrame(frameErrorMessage(err)))
		_ = conn.Close()
		return
	}

	client := &chatClient{
		conn:    conn,
		send:    make(chan interface{}, chatSendBufferSize),
		options: opts,
		service: s,
		closed:  make(chan struct{}),
		baseCtx: baseCtx,
	}

	s.registry.register(client)
	observability.ChatConnectionsTotal().Inc()
	observability.ChatSessionsActive().Inc()

	client.send <- dto.NewChatConnectedFrame(opts.MatchID, opts.UserID)

	go client.writer()
	client.reader()
}

// authorize admits only participants of an accepted match.
func (s *chatService) authorize(ctx context.Context, opts ChatConnectionOptions) error {
	match, err := s.matches.FindByID(ctx, opts.MatchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMatchNotFound
		}
		return err
	}

	if !match.HasParticipant(opts.UserID) {
		return ErrNotParticipant
	}
	if match.Status != models.MatchAccepted {
		return ErrMatchNotAccepted
	}

	return nil
}

// route persists an inbound chat frame and fans it out to the other live
// sessions of the match. On persistence failure the sender gets an error
// frame and nothing is broadcast.
func (s *chatService) route(ctx context.Context, client *chatClient, content string) {
	response, err := s.conversations.Post(ctx, Actor{ID: client.options.UserID}, client.options.MatchID, content)
	if err != nil {
		client.sendFrame(dto.NewChatErrorFrame(frameErrorMessage(err)))
		return
	}

	frame := dto.NewChatMessageFrame(response)
	s.registry.broadcast(client.options.MatchID, client.options.UserID, frame)

	if err := s.publish(ctx, client.options.MatchID, client.options.UserID, frame); err != nil {
		s.logger.Warn().Err(err).Msg("failed to relay chat frame")
	}
}

func (s *chatService) publish(ctx context.Context, matchID, senderID uint, frame dto.ChatMessageFrame) error {
	event := chatEvent{
		Source:   s.nodeID,
		MatchID:  matchID,
		SenderID: senderID,
		Frame:    frame,
		SentAt:   time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *chatService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("chat redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *chatService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "nestmatch-chat", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats chat subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain chat nats subscription")
		}
	}()
}

func (s *chatService) handleEvent(data []byte) {
	var event chatEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid chat event")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.registry.broadcast(event.MatchID, event.SenderID, event.Frame)
}

func (r *chatRegistry) register(client *chatClient) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matchID := client.options.MatchID
	if _, exists := r.matches[matchID]; !exists {
		r.matches[matchID] = make(map[*chatClient]struct{})
	}
	r.matches[matchID][client] = struct{}{}
	r.log.Debug().Uint("match_id", matchID).Uint("user_id", client.options.UserID).Msg("chat client connected")
}

func (r *chatRegistry) unregister(client *chatClient) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matchID := client.options.MatchID
	if clients, ok := r.matches[matchID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(r.matches, matchID)
		}
	}
	r.log.Debug().Uint("match_id", matchID).Uint("user_id", client.options.UserID).Msg("chat client disconnected")
}

// broadcast pushes a frame to every session of the match except the sender's
// own. Slow consumers are skipped rather than blocking delivery.
func (r *chatRegistry) broadcast(matchID, senderID uint, frame interface{}) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for client := range r.matches[matchID] {
		if client.options.UserID == senderID {
			continue
		}
		select {
		case client.send <- frame:
		default:
			r.log.Warn().Uint("match_id", matchID).Uint("user_id", client.options.UserID).Msg("dropping chat frame for slow client")
		}
	}
}

// sessions reports how many live sessions are registered for a match.
func (r *chatRegistry) sessions(matchID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches[matchID])
}

func (c *chatClient) reader() {
	defer c.close()

	for {
		var frame dto.ChatInboundFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			c.service.logger.Debug().Err(err).Msg("chat read loop ended")
			return
		}

		if frame.Type != dto.FrameTypeMessage {
			c.sendFrame(dto.NewChatErrorFrame("unsupported frame type"))
			continue
		}

		content := strings.TrimSpace(frame.Content)
		if content == "" {
			c.sendFrame(dto.NewChatErrorFrame("empty message"))
			continue
		}

		c.service.route(c.baseCtx, c, content)
	}
}

func (c *chatClient) writer() {
	defer c.close()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				c.service.logger.Debug().Err(err).Msg("chat write loop terminated")
				return
			}
		case <-time.After(30 * time.Second):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("chat ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *chatClient) sendFrame(frame interface{}) {
	select {
	case <-c.closed:
	case c.send <- frame:
	default:
		c.service.logger.Warn().Uint("user_id", c.options.UserID).Msg("sender queue full, dropping frame")
	}
}

func (c *chatClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.registry.unregister(c)
		observability.ChatSessionsActive().Dec()
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// frameErrorMessage maps service errors onto the wire-level error text.
func frameErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrMatchNotFound):
		return "match not found"
	case errors.Is(err, ErrNotParticipant):
		return "not a participant"
	case errors.Is(err, ErrMatchNotAccepted):
		return "match is not accepted"
	case errors.Is(err, ErrEmptyMessage):
		return "empty message"
	default:
		return "failed to send message"
	}
}
