package user

import "context"

// Repository defines user data access interface
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*User, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*User, int, error)
	// SuggestCandidates returns active users followed by userID's friends that
	// userID has no edge to and no block with, best candidates first.
	SuggestCandidates(ctx context.Context, userID int64, limit int) ([]*User, error)
}
