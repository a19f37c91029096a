package user

import (
	"database/sql"
	"time"
)

// Status represents user account status (matches user_status enum)
type Status string

const (
	StatusActive      Status = "active"
	StatusDeactivated Status = "deactivated"
	StatusSuspended   Status = "suspended"
)

// User represents a user account (matches users table)
type User struct {
	ID          int64          `db:"id"`
	Username    string         `db:"username"`
	DisplayName string         `db:"display_name"`
	AvatarURL   sql.NullString `db:"avatar_url"`
	Status      Status         `db:"status"`
	IsAdmin     bool           `db:"is_admin"`

	// Privacy: when set, inbound follows start as pending requests
	RequiresApproval bool `db:"requires_approval"`

	// Denormalized counters, recomputable from the follow edge table
	FollowersCount int64 `db:"followers_count"`
	FollowingCount int64 `db:"following_count"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsActive returns true if the account can be interacted with
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// IsProtected returns true for accounts that cannot be blocked
func (u *User) IsProtected() bool {
	return u.IsAdmin
}
