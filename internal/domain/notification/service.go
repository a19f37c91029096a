package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RealtimePublisher pushes freshly created notifications to connected clients
type RealtimePublisher interface {
	Publish(userID int64, payload any)
}

// Service handles notification logic
type Service struct {
	repo     Repository
	realtime RealtimePublisher // nil if realtime disabled
}

// NewService creates notification service
func NewService(repo Repository, realtime RealtimePublisher) *Service {
	return &Service{repo: repo, realtime: realtime}
}

// Notify records a relationship event for toUserID. Fire-and-forget: all
// failures are logged and swallowed, the caller's operation never depends on
// delivery. Duplicate unseen notifications of the same kind from the same
// actor are suppressed.
func (s *Service) Notify(ctx context.Context, kind string, fromUserID, toUserID int64) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    toUserID,
		ActorID:   fromUserID,
		Type:      Type(kind),
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	inserted, err := s.repo.CreateIfUnseen(ctx, n)
	if err != nil {
		log.Warn().Err(err).
			Str("type", kind).
			Int64("from", fromUserID).
			Int64("to", toUserID).
			Msg("Failed to create notification")
		return
	}
	if !inserted {
		return
	}

	if s.realtime != nil {
		s.realtime.Publish(toUserID, map[string]interface{}{
			"type": "notification:new",
			"data": NotificationFromEntity(n),
		})
	}
}

// List returns notifications for user
func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]*Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// GetUnreadCount returns unread count
func (s *Service) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.CountUnreadByUser(ctx, userID)
}

// MarkAsRead marks single notification as read
func (s *Service) MarkAsRead(ctx context.Context, userID int64, id uuid.UUID) (bool, error) {
	return s.repo.MarkAsRead(ctx, userID, id)
}

// MarkAllAsRead marks all notifications as read
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
