package relationship

import "time"

// EdgeState represents the state of a follow edge (matches follow_edge_state enum)
type EdgeState string

const (
	// EdgeStatePending is an unanswered follow request
	EdgeStatePending EdgeState = "pending"
	// EdgeStateActive is an accepted or direct follow
	EdgeStateActive EdgeState = "active"
)

// FollowEdge represents a directed relationship "follower follows following".
// At most one edge exists per ordered (follower_id, following_id) pair;
// absence of a row means not following and no pending request.
type FollowEdge struct {
	ID          int64     `db:"id" json:"id"`
	FollowerID  int64     `db:"follower_id" json:"follower_id"`
	FollowingID int64     `db:"following_id" json:"following_id"`
	State       EdgeState `db:"state" json:"state"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// IsActive returns true if the edge is an accepted follow
func (e *FollowEdge) IsActive() bool {
	return e.State == EdgeStateActive
}

// BlockEdge represents "blocker has blocked blocked". Directional: the
// reverse block is a separate, independent row.
type BlockEdge struct {
	ID        int64     `db:"id" json:"id"`
	BlockerID int64     `db:"blocker_id" json:"blocker_id"`
	BlockedID int64     `db:"blocked_id" json:"blocked_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FollowResult is the outcome of a follow toggle
type FollowResult string

const (
	ResultFollowed   FollowResult = "followed"
	ResultRequested  FollowResult = "requested"
	ResultUnfollowed FollowResult = "unfollowed"
)

// BlockResult is the outcome of a block action
type BlockResult string

const (
	ResultBlocked        BlockResult = "blocked"
	ResultAlreadyBlocked BlockResult = "already_blocked"
)

// UnblockResult is the outcome of an unblock action
type UnblockResult string

const (
	ResultUnblocked  UnblockResult = "unblocked"
	ResultNotBlocked UnblockResult = "not_blocked"
)

// Context describes how a viewer relates to a target user, for profile views
type Context struct {
	IsFollowing        bool `json:"is_following"`
	IsRequested        bool `json:"is_requested"`
	IsFollowedBy       bool `json:"is_followed_by"`
	IsFriend           bool `json:"is_friend"`
	IsBlocked          bool `json:"is_blocked"`
	MutualFriendsCount int  `json:"mutual_friends_count"`
}
