package notification

import (
	"time"

	"github.com/google/uuid"
)

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	Type      Type      `json:"type"`
	ActorID   int64     `json:"actor_id"`
	IsRead    bool      `json:"is_read"`
	CreatedAt string    `json:"created_at"`
}

// NotificationFromEntity converts entity to response
func NotificationFromEntity(n *Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		ActorID:   n.ActorID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}
