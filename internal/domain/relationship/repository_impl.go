package relationship

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new relationship repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// blockFilter excludes edge partners that have a block edge with the viewer
// in either direction. The partner column differs per view.
const blockFilter = `
		NOT EXISTS (
			SELECT 1 FROM block_edges b
			WHERE (b.blocker_id = $2 AND b.blocked_id = fe.%[1]s)
			   OR (b.blocker_id = fe.%[1]s AND b.blocked_id = $2)
		)`

func (r *repository) GetEdge(ctx context.Context, followerID, followingID int64) (*FollowEdge, error) {
	query := `SELECT * FROM follow_edges WHERE follower_id = $1 AND following_id = $2`

	var edge FollowEdge
	err := r.db.GetContext(ctx, &edge, query, followerID, followingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &edge, nil
}

func (r *repository) CreateEdge(ctx context.Context, edge *FollowEdge) error {
	query := `
		INSERT INTO follow_edges (follower_id, following_id, state, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, edge.FollowerID, edge.FollowingID, edge.State, edge.CreatedAt).Scan(&edge.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEdgeExists
		}
		return err
	}
	return nil
}

func (r *repository) RemoveEdge(ctx context.Context, followerID, followingID int64) (*FollowEdge, error) {
	query := `DELETE FROM follow_edges WHERE follower_id = $1 AND following_id = $2 RETURNING *`

	var edge FollowEdge
	err := r.db.GetContext(ctx, &edge, query, followerID, followingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &edge, nil
}

func (r *repository) RemovePendingEdge(ctx context.Context, followerID, followingID int64) (bool, error) {
	query := `DELETE FROM follow_edges WHERE follower_id = $1 AND following_id = $2 AND state = $3`
	res, err := r.db.ExecContext(ctx, query, followerID, followingID, EdgeStatePending)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *repository) ActivatePendingEdge(ctx context.Context, followerID, followingID int64) (bool, error) {
	// UPDATE, not delete+insert, so created_at is preserved
	query := `UPDATE follow_edges SET state = $1 WHERE follower_id = $2 AND following_id = $3 AND state = $4`
	res, err := r.db.ExecContext(ctx, query, EdgeStateActive, followerID, followingID, EdgeStatePending)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *repository) HasBlock(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM block_edges WHERE blocker_id = $1 AND blocked_id = $2)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, blockerID, blockedID)
	return exists, err
}

func (r *repository) HasBlockBetween(ctx context.Context, userA, userB int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM block_edges
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userA, userB)
	return exists, err
}

// CreateBlockClearingEdges inserts the block edge and deletes any follow edge
// between the pair in either direction, all in one transaction. Returns the
// removed follow edges.
func (r *repository) CreateBlockClearingEdges(ctx context.Context, block *BlockEdge) ([]*FollowEdge, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO block_edges (blocker_id, blocked_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, insertQuery, block.BlockerID, block.BlockedID, block.CreatedAt).Scan(&block.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrBlockExists
		}
		return nil, err
	}

	clearQuery := `
		DELETE FROM follow_edges
		WHERE (follower_id = $1 AND following_id = $2)
		   OR (follower_id = $2 AND following_id = $1)
		RETURNING *
	`
	var removed []*FollowEdge
	if err := tx.SelectContext(ctx, &removed, clearQuery, block.BlockerID, block.BlockedID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *repository) DeleteBlock(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	query := `DELETE FROM block_edges WHERE blocker_id = $1 AND blocked_id = $2`
	res, err := r.db.ExecContext(ctx, query, blockerID, blockedID)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *repository) ListBlocks(ctx context.Context, blockerID int64, p *Pagination) ([]*BlockEdge, int, error) {
	countQuery := `SELECT COUNT(*) FROM block_edges WHERE blocker_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, blockerID); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT * FROM block_edges
		WHERE blocker_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	var blocks []*BlockEdge
	if err := r.db.SelectContext(ctx, &blocks, query, blockerID, p.Limit, p.Offset()); err != nil {
		return nil, 0, err
	}
	return blocks, total, nil
}

func (r *repository) ListFollowing(ctx context.Context, userID, viewerID int64, p *Pagination) ([]*FollowEdge, int, error) {
	where := `fe.follower_id = $1 AND fe.state = 'active' AND ` + fmt.Sprintf(blockFilter, "following_id")
	return r.listEdges(ctx, where, userID, viewerID, p)
}

func (r *repository) ListFollowers(ctx context.Context, userID, viewerID int64, p *Pagination) ([]*FollowEdge, int, error) {
	where := `fe.following_id = $1 AND fe.state = 'active' AND ` + fmt.Sprintf(blockFilter, "follower_id")
	return r.listEdges(ctx, where, userID, viewerID, p)
}

func (r *repository) ListPending(ctx context.Context, userID, viewerID int64, incoming bool, p *Pagination) ([]*FollowEdge, int, error) {
	ownCol, partnerCol := "following_id", "follower_id"
	if !incoming {
		ownCol, partnerCol = "follower_id", "following_id"
	}
	where := fmt.Sprintf(`fe.%s = $1 AND fe.state = 'pending' AND `, ownCol) + fmt.Sprintf(blockFilter, partnerCol)
	return r.listEdges(ctx, where, userID, viewerID, p)
}

func (r *repository) ListFriends(ctx context.Context, userID, viewerID int64, p *Pagination) ([]*FollowEdge, int, error) {
	// Friends = mutual active follow; the outgoing edge carries the sort key
	where := `fe.follower_id = $1 AND fe.state = 'active'
		AND EXISTS (
			SELECT 1 FROM follow_edges rev
			WHERE rev.follower_id = fe.following_id
			  AND rev.following_id = fe.follower_id
			  AND rev.state = 'active'
		) AND ` + fmt.Sprintf(blockFilter, "following_id")
	return r.listEdges(ctx, where, userID, viewerID, p)
}

func (r *repository) listEdges(ctx context.Context, where string, userID, viewerID int64, p *Pagination) ([]*FollowEdge, int, error) {
	countQuery := `SELECT COUNT(*) FROM follow_edges fe WHERE ` + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, userID, viewerID); err != nil {
		return nil, 0, err
	}

	query := `SELECT fe.* FROM follow_edges fe WHERE ` + where + `
		ORDER BY fe.created_at DESC, fe.id DESC
		LIMIT $3 OFFSET $4`
	var edges []*FollowEdge
	if err := r.db.SelectContext(ctx, &edges, query, userID, viewerID, p.Limit, p.Offset()); err != nil {
		return nil, 0, err
	}
	return edges, total, nil
}

func (r *repository) AreMutual(ctx context.Context, userA, userB int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM follow_edges ab
			JOIN follow_edges ba ON ba.follower_id = ab.following_id AND ba.following_id = ab.follower_id
			WHERE ab.follower_id = $1 AND ab.following_id = $2
			  AND ab.state = 'active' AND ba.state = 'active'
		)
	`
	var mutual bool
	err := r.db.GetContext(ctx, &mutual, query, userA, userB)
	return mutual, err
}

func (r *repository) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT fe.following_id FROM follow_edges fe
		JOIN follow_edges rev ON rev.follower_id = fe.following_id AND rev.following_id = fe.follower_id
		WHERE fe.follower_id = $1 AND fe.state = 'active' AND rev.state = 'active'
	`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) CountFriendsAmong(ctx context.Context, userID int64, candidateIDs []int64, excludeID int64) (int, error) {
	if len(candidateIDs) == 0 {
		return 0, nil
	}
	query := `
		SELECT COUNT(*) FROM follow_edges fe
		JOIN follow_edges rev ON rev.follower_id = fe.following_id AND rev.following_id = fe.follower_id
		WHERE fe.follower_id = $1 AND fe.state = 'active' AND rev.state = 'active'
		  AND fe.following_id = ANY($2)
		  AND fe.following_id <> $3
	`
	var count int
	err := r.db.GetContext(ctx, &count, query, userID, pq.Array(candidateIDs), excludeID)
	return count, err
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
