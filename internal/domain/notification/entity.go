package notification

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Type represents notification type
type Type string

const (
	TypeFollowRequest   Type = "follow_request"   // someone requested to follow you
	TypeFollowing       Type = "following"        // someone started following you
	TypeRequestAccepted Type = "request_accepted" // your follow request was accepted
)

// Notification represents a user notification
type Notification struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	UserID    int64        `db:"user_id" json:"user_id"`
	ActorID   int64        `db:"actor_id" json:"actor_id"`
	Type      Type         `db:"type" json:"type"`
	IsRead    bool         `db:"is_read" json:"is_read"`
	ReadAt    sql.NullTime `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
