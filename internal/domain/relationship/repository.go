package relationship

import "context"

// Pagination for listing
type Pagination struct {
	Page  int
	Limit int
}

// Offset returns the SQL offset for the page
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Repository defines follow/block edge data access. Every mutating method is
// atomic: single-statement mutations lean on the unique constraint over
// (follower_id, following_id), and the composite block mutation runs in one
// transaction internally.
type Repository interface {
	// Follow edges
	GetEdge(ctx context.Context, followerID, followingID int64) (*FollowEdge, error)
	CreateEdge(ctx context.Context, edge *FollowEdge) error
	RemoveEdge(ctx context.Context, followerID, followingID int64) (*FollowEdge, error)
	RemovePendingEdge(ctx context.Context, followerID, followingID int64) (bool, error)
	ActivatePendingEdge(ctx context.Context, followerID, followingID int64) (bool, error)

	// Block edges
	HasBlock(ctx context.Context, blockerID, blockedID int64) (bool, error)
	HasBlockBetween(ctx context.Context, userA, userB int64) (bool, error)
	CreateBlockClearingEdges(ctx context.Context, block *BlockEdge) ([]*FollowEdge, error)
	DeleteBlock(ctx context.Context, blockerID, blockedID int64) (bool, error)
	ListBlocks(ctx context.Context, blockerID int64, p *Pagination) ([]*BlockEdge, int, error)

	// Derived views. viewerID drives the symmetric block filter: any user with
	// a block edge to or from the viewer is excluded.
	ListFollowing(ctx context.Context, userID, viewerID int64, p *Pagination) ([]*FollowEdge, int, error)
	ListFollowers(ctx context.Context, userID, viewerID int64, p *Pagination) ([]*FollowEdge, int, error)
	ListPending(ctx context.Context, userID, viewerID int64, incoming bool, p *Pagination) ([]*FollowEdge, int, error)
	ListFriends(ctx context.Context, userID, viewerID int64, p *Pagination) ([]*FollowEdge, int, error)
	AreMutual(ctx context.Context, userA, userB int64) (bool, error)
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
	CountFriendsAmong(ctx context.Context, userID int64, candidateIDs []int64, excludeID int64) (int, error)
}
