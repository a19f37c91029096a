package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var u User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []int64) ([]*User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT * FROM users WHERE id = ANY($1)`

	var users []*User
	if err := r.db.SelectContext(ctx, &users, query, pq.Array(ids)); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repository) Search(ctx context.Context, search string, limit, offset int) ([]*User, int, error) {
	pattern := "%" + search + "%"

	countQuery := `
		SELECT COUNT(*) FROM users
		WHERE status = 'active' AND (username ILIKE $1 OR display_name ILIKE $1)
	`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, pattern); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT * FROM users
		WHERE status = 'active' AND (username ILIKE $1 OR display_name ILIKE $1)
		ORDER BY followers_count DESC, id ASC
		LIMIT $2 OFFSET $3
	`
	var users []*User
	if err := r.db.SelectContext(ctx, &users, query, pattern, limit, offset); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *repository) SuggestCandidates(ctx context.Context, userID int64, limit int) ([]*User, error) {
	// Friends-of-friends: users actively followed by the caller's mutual
	// follows, minus anyone the caller already has an edge or block with
	query := `
		SELECT DISTINCT u.*, COUNT(*) OVER (PARTITION BY u.id) AS relevance
		FROM follow_edges friend
		JOIN follow_edges rev ON rev.follower_id = friend.following_id AND rev.following_id = friend.follower_id
		JOIN follow_edges fof ON fof.follower_id = friend.following_id AND fof.state = 'active'
		JOIN users u ON u.id = fof.following_id
		WHERE friend.follower_id = $1 AND friend.state = 'active' AND rev.state = 'active'
		  AND u.id <> $1
		  AND u.status = 'active'
		  AND NOT EXISTS (
			SELECT 1 FROM follow_edges e WHERE e.follower_id = $1 AND e.following_id = u.id
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM block_edges b
			WHERE (b.blocker_id = $1 AND b.blocked_id = u.id)
			   OR (b.blocker_id = u.id AND b.blocked_id = $1)
		  )
		ORDER BY relevance DESC, u.followers_count DESC
		LIMIT $2
	`
	rows, err := r.db.QueryxContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var row struct {
			User
			Relevance int `db:"relevance"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		u := row.User
		users = append(users, &u)
	}
	return users, rows.Err()
}
