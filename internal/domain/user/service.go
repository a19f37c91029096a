package user

import (
	"context"

	"github.com/loopsocial/loop-api/internal/domain/relationship"
)

// RelationshipReader is the slice of the relationship service the user domain
// consumes for profile context and suggestions
type RelationshipReader interface {
	ContextFor(ctx context.Context, viewerID, targetID int64) (*relationship.Context, error)
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
	MutualFriendsCount(ctx context.Context, a, b int64, friendsOfA []int64) (int, error)
}

// Service handles user profile business logic
type Service struct {
	repo          Repository
	relationships RelationshipReader
}

// NewService creates new user service
func NewService(repo Repository, relationships RelationshipReader) *Service {
	return &Service{repo: repo, relationships: relationships}
}

// GetProfile returns a user profile with the viewer's relationship context
func (s *Service) GetProfile(ctx context.Context, viewerID, targetID int64) (*User, *relationship.Context, error) {
	u, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}
	if u == nil || !u.IsActive() {
		return nil, nil, ErrUserNotFound
	}

	if viewerID == targetID {
		return u, nil, nil
	}

	rc, err := s.relationships.ContextFor(ctx, viewerID, targetID)
	if err != nil {
		return nil, nil, err
	}
	return u, rc, nil
}

// Search finds active users by username or display name
func (s *Service) Search(ctx context.Context, viewerID int64, query string, limit, offset int) ([]*Suggestion, int, error) {
	users, total, err := s.repo.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	items, err := s.withMutualCounts(ctx, viewerID, users)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Suggest returns people-you-may-know candidates ranked by mutual friends
func (s *Service) Suggest(ctx context.Context, userID int64, limit int) ([]*Suggestion, error) {
	users, err := s.repo.SuggestCandidates(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return s.withMutualCounts(ctx, userID, users)
}

// withMutualCounts annotates candidates with mutual-friend counts, computing
// the viewer's friend set once and reusing it across the batch
func (s *Service) withMutualCounts(ctx context.Context, viewerID int64, users []*User) ([]*Suggestion, error) {
	friendSet, err := s.relationships.FriendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	items := make([]*Suggestion, 0, len(users))
	for _, u := range users {
		count := 0
		if u.ID != viewerID {
			count, err = s.relationships.MutualFriendsCount(ctx, viewerID, u.ID, friendSet)
			if err != nil {
				return nil, err
			}
		}
		items = append(items, &Suggestion{User: u, MutualFriendsCount: count})
	}
	return items, nil
}

// Suggestion pairs a user with the viewer's mutual-friend count
type Suggestion struct {
	User               *User
	MutualFriendsCount int
}

// IdentityAdapter exposes the user repository as the relationship domain's
// identity lookup
type IdentityAdapter struct {
	repo Repository
}

// NewIdentityAdapter creates an identity adapter
func NewIdentityAdapter(repo Repository) *IdentityAdapter {
	return &IdentityAdapter{repo: repo}
}

// Exists reports whether the user exists and is active
func (a *IdentityAdapter) Exists(ctx context.Context, userID int64) (bool, error) {
	u, err := a.repo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u != nil && u.IsActive(), nil
}

// IsProtected reports whether the user cannot be blocked
func (a *IdentityAdapter) IsProtected(ctx context.Context, userID int64) (bool, error) {
	u, err := a.repo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u != nil && u.IsProtected(), nil
}

// RequiresApproval reports whether inbound follows start as pending requests
func (a *IdentityAdapter) RequiresApproval(ctx context.Context, userID int64) (bool, error) {
	u, err := a.repo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u != nil && u.RequiresApproval, nil
}

// SummaryProvider exposes batch profile fetch for relationship list hydration
type SummaryProvider struct {
	repo Repository
}

// NewSummaryProvider creates a summary provider
func NewSummaryProvider(repo Repository) *SummaryProvider {
	return &SummaryProvider{repo: repo}
}

// GetSummaries returns profile summaries keyed by user id
func (p *SummaryProvider) GetSummaries(ctx context.Context, userIDs []int64) (map[int64]*relationship.UserSummary, error) {
	users, err := p.repo.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	summaries := make(map[int64]*relationship.UserSummary, len(users))
	for _, u := range users {
		summaries[u.ID] = SummaryFromEntity(u)
	}
	return summaries, nil
}

// SummaryFromEntity converts a user to a relationship summary
func SummaryFromEntity(u *User) *relationship.UserSummary {
	s := &relationship.UserSummary{
		ID:             u.ID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		FollowersCount: u.FollowersCount,
	}
	if u.AvatarURL.Valid {
		s.AvatarURL = &u.AvatarURL.String
	}
	return s
}
