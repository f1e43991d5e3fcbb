package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/nestmatch/nestmatch-api/internal/dto"
	"github.com/nestmatch/nestmatch-api/internal/models"
	"github.com/nestmatch/nestmatch-api/internal/repository"
)

type swipeRepoStub struct {
	swipes   map[uint]models.Swipe
	received []repository.ReceivedLike
	nextID   uint
	deleted  []uint
}

func newSwipeRepoStub() *swipeRepoStub {
	return &swipeRepoStub{swipes: make(map[uint]models.Swipe)}
}

func (s *swipeRepoStub) Upsert(ctx context.Context, swipe *models.Swipe) (models.Swipe, error) {
	for id, existing := range s.swipes {
		if existing.StudentID == swipe.StudentID && existing.ListingID == swipe.ListingID {
			existing.Liked = swipe.Liked
			existing.UpdatedAt = time.Now().UTC()
			s.swipes[id] = existing
			return existing, nil
		}
	}

	s.nextID++
	swipe.ID = s.nextID
	swipe.CreatedAt = time.Now().UTC()
	swipe.UpdatedAt = swipe.CreatedAt
	s.swipes[swipe.ID] = *swipe
	return *swipe, nil
}

func (s *swipeRepoStub) FindByID(ctx context.Context, id uint) (models.Swipe, error) {
	if swipe, ok := s.swipes[id]; ok {
		return swipe, nil
	}
	return models.Swipe{}, gorm.ErrRecordNotFound
}

func (s *swipeRepoStub) FindByStudentListing(ctx context.Context, studentID, listingID uint) (models.Swipe, error) {
	for _, swipe := range s.swipes {
		if swipe.StudentID == studentID && swipe.ListingID == listingID {
			return swipe, nil
		}
	}
	return models.Swipe{}, gorm.ErrRecordNotFound
}

func (s *swipeRepoStub) Delete(ctx context.Context, id uint) error {
	delete(s.swipes, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *swipeRepoStub) ListLikedByStudent(ctx context.Context, studentID uint, limit, offset int) ([]models.Swipe, error) {
	var out []models.Swipe
	for _, swipe := range s.swipes {
		if swipe.StudentID == studentID && swipe.Liked {
			out = append(out, swipe)
		}
	}
	return out, nil
}

func (s *swipeRepoStub) ListPendingReceived(ctx context.Context, landlordID uint, limit, offset int) ([]repository.ReceivedLike, error) {
	return s.received, nil
}

type matchRepoStub struct {
	matches map[uint]models.Match
	nextID  uint
	failErr error
}

func newMatchRepoStub() *matchRepoStub {
	return &matchRepoStub{matches: make(map[uint]models.Match)}
}

func (m *matchRepoStub) Create(ctx context.Context, match *models.Match) error {
	if m.failErr != nil {
		return m.failErr
	}
	for _, existing := range m.matches {
		if existing.SwipeID == match.SwipeID {
			return gorm.ErrDuplicatedKey
		}
		if existing.StudentID == match.StudentID && existing.ListingID == match.ListingID {
			return gorm.ErrDuplicatedKey
		}
	}

	m.nextID++
	match.ID = m.nextID
	match.CreatedAt = time.Now().UTC()
	m.matches[match.ID] = *match
	return nil
}

func (m *matchRepoStub) FindByID(ctx context.Context, id uint) (models.Match, error) {
	if match, ok := m.matches[id]; ok {
		return match, nil
	}
	return models.Match{}, gorm.ErrRecordNotFound
}

func (m *matchRepoStub) FindBySwipeID(ctx context.Context, swipeID uint) (models.Match, error) {
	for _, match := range m.matches {
		if match.SwipeID == swipeID {
			return match, nil
		}
	}
	return models.Match{}, gorm.ErrRecordNotFound
}

func (m *matchRepoStub) ListAcceptedByUser(ctx context.Context, userID uint, asLandlord bool, limit, offset int) ([]models.Match, error) {
	var out []models.Match
	for _, match := range m.matches {
		if match.Status != models.MatchAccepted {
			continue
		}
		if asLandlord && match.LandlordID == userID {
			out = append(out, match)
		}
		if !asLandlord && match.StudentID == userID {
			out = append(out, match)
		}
	}
	return out, nil
}

type listingRepoStub struct {
	listings map[uint]models.Listing
}

func (l *listingRepoStub) FindByID(ctx context.Context, id uint) (models.Listing, error) {
	if listing, ok := l.listings[id]; ok {
		return listing, nil
	}
	return models.Listing{}, gorm.ErrRecordNotFound
}

type userRepoStub struct {
	users map[uint]models.User
}

func (u *userRepoStub) FindByID(ctx context.Context, id uint) (models.User, error) {
	if user, ok := u.users[id]; ok {
		return user, nil
	}
	return models.User{}, gorm.ErrRecordNotFound
}

type conversationRepoStub struct {
	messages       []models.Message
	notifications  []models.Notification
	lastPreview    string
	lastToLandlord bool
	resetCalls     []bool
	failPost       error
}

func (c *conversationRepoStub) PostMessage(ctx context.Context, message *models.Message, preview string, recipientIsLandlord bool, notification *models.Notification) error {
	if c.failPost != nil {
		return c.failPost
	}

	message.ID = uint(len(c.messages) + 1)
	message.CreatedAt = time.Now().UTC()
	c.messages = append(c.messages, *message)
	c.lastPreview = preview
	c.lastToLandlord = recipientIsLandlord

	notification.ID = uint(len(c.notifications) + 1)
	c.notifications = append(c.notifications, *notification)
	return nil
}

func (c *conversationRepoStub) ListByMatch(ctx context.Context, matchID uint, limit, offset int) ([]models.Message, error) {
	var out []models.Message
	for _, message := range c.messages {
		if message.MatchID == matchID {
			out = append(out, message)
		}
	}
	return out, nil
}

func (c *conversationRepoStub) ResetUnread(ctx context.Context, matchID uint, forLandlord bool) error {
	c.resetCalls = append(c.resetCalls, forLandlord)
	return nil
}

func (c *conversationRepoStub) CountUnread(ctx context.Context, matchID uint, forLandlord bool) (int, error) {
	return 0, nil
}

type notificationRepoStub struct {
	mu    sync.Mutex
	items []models.Notification
}

func (n *notificationRepoStub) Create(ctx context.Context, notification *models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	notification.ID = uint(len(n.items) + 1)
	notification.CreatedAt = time.Now().UTC()
	n.items = append(n.items, *notification)
	return nil
}

func (n *notificationRepoStub) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []models.Notification
	for _, item := range n.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (n *notificationRepoStub) FindByID(ctx context.Context, id uint) (models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, item := range n.items {
		if item.ID == id {
			return item, nil
		}
	}
	return models.Notification{}, gorm.ErrRecordNotFound
}

func (n *notificationRepoStub) MarkRead(ctx context.Context, notification *models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	notification.Read = true
	for i, item := range n.items {
		if item.ID == notification.ID {
			n.items[i].Read = true
		}
	}
	return nil
}

type emittedNotification struct {
	UserID      uint
	Type        string
	ReferenceID uint
	Data        map[string]string
}

type notificationServiceStub struct {
	mu        sync.Mutex
	emitted   []emittedNotification
	announced []models.Notification
	failEmit  error
}

func (n *notificationServiceStub) Emit(ctx context.Context, userID uint, notificationType string, referenceID uint, data map[string]string) (dto.NotificationResponse, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.failEmit != nil {
		return dto.NotificationResponse{}, n.failEmit
	}

	n.emitted = append(n.emitted, emittedNotification{
		UserID:      userID,
		Type:        notificationType,
		ReferenceID: referenceID,
		Data:        data,
	})
	return dto.NotificationResponse{UserID: userID, Type: notificationType, ReferenceID: referenceID, Data: data}, nil
}

func (n *notificationServiceStub) Announce(notification models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.announced = append(n.announced, notification)
}

func (n *notificationServiceStub) List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	return nil, nil
}

func (n *notificationServiceStub) MarkRead(ctx context.Context, id uint, requesterID uint) (dto.NotificationResponse, error) {
	return dto.NotificationResponse{}, fmt.Errorf("not implemented")
}

func (n *notificationServiceStub) Subscribe(userID uint) (<-chan dto.NotificationResponse, func()) {
	ch := make(chan dto.NotificationResponse)
	return ch, func() { close(ch) }
}

func (n *notificationServiceStub) Start(ctx context.Context) {}
