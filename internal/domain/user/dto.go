package user

import (
	"time"

	"github.com/loopsocial/loop-api/internal/domain/relationship"
)

// ProfileResponse for GET /users/{id}
type ProfileResponse struct {
	ID             int64                 `json:"id"`
	Username       string                `json:"username"`
	DisplayName    string                `json:"display_name"`
	AvatarURL      *string               `json:"avatar_url,omitempty"`
	FollowersCount int64                 `json:"followers_count"`
	FollowingCount int64                 `json:"following_count"`
	JoinedAt       string                `json:"joined_at"`
	Relationship   *relationship.Context `json:"relationship,omitempty"`
}

// SuggestionResponse represents one search or suggestion result
type SuggestionResponse struct {
	ID                 int64   `json:"id"`
	Username           string  `json:"username"`
	DisplayName        string  `json:"display_name"`
	AvatarURL          *string `json:"avatar_url,omitempty"`
	FollowersCount     int64   `json:"followers_count"`
	MutualFriendsCount int     `json:"mutual_friends_count"`
}

// SearchRequest holds validated search query parameters
type SearchRequest struct {
	Query string `json:"q" validate:"required,min=2,max=64"`
	Page  int    `json:"page" validate:"gte=1"`
	Limit int    `json:"limit" validate:"gte=1,lte=50"`
}

// SuggestRequest holds validated suggestion query parameters
type SuggestRequest struct {
	Limit int `json:"limit" validate:"gte=1,lte=50"`
}

// ProfileFromEntity converts entity to response
func ProfileFromEntity(u *User, rc *relationship.Context) *ProfileResponse {
	resp := &ProfileResponse{
		ID:             u.ID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		JoinedAt:       u.CreatedAt.Format(time.RFC3339),
		Relationship:   rc,
	}
	if u.AvatarURL.Valid {
		resp.AvatarURL = &u.AvatarURL.String
	}
	return resp
}

// SuggestionFromEntity converts a suggestion to a response
func SuggestionFromEntity(s *Suggestion) *SuggestionResponse {
	resp := &SuggestionResponse{
		ID:                 s.User.ID,
		Username:           s.User.Username,
		DisplayName:        s.User.DisplayName,
		FollowersCount:     s.User.FollowersCount,
		MutualFriendsCount: s.MutualFriendsCount,
	}
	if s.User.AvatarURL.Valid {
		resp.AvatarURL = &s.User.AvatarURL.String
	}
	return resp
}
