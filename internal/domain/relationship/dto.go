package relationship

import "time"

// UserSummary is the slice of profile data embedded in relationship listings
type UserSummary struct {
	ID             int64   `json:"id"`
	Username       string  `json:"username"`
	DisplayName    string  `json:"display_name"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	FollowersCount int64   `json:"followers_count"`
}

// FollowToggleResponse for POST /users/{id}/follow
type FollowToggleResponse struct {
	Result FollowResult `json:"result"`
}

// BlockResponse for POST /users/{id}/block
type BlockResponse struct {
	Result BlockResult `json:"result"`
}

// UnblockResponse for DELETE /users/{id}/block
type UnblockResponse struct {
	Result UnblockResult `json:"result"`
}

// RelationUserResponse represents one entry of a relationship listing
type RelationUserResponse struct {
	User  *UserSummary `json:"user"`
	State EdgeState    `json:"state"`
	Since string       `json:"since"`
}

// BlockedUserResponse represents a blocked user in API response
type BlockedUserResponse struct {
	User      *UserSummary `json:"user"`
	BlockedAt string       `json:"blocked_at"`
}

// RelationUserFromEdge converts an edge plus hydrated profile to a response
func RelationUserFromEdge(edge *FollowEdge, user *UserSummary) *RelationUserResponse {
	return &RelationUserResponse{
		User:  user,
		State: edge.State,
		Since: edge.CreatedAt.Format(time.RFC3339),
	}
}

// BlockedUserFromEdge converts a block edge plus hydrated profile to a response
func BlockedUserFromEdge(block *BlockEdge, user *UserSummary) *BlockedUserResponse {
	return &BlockedUserResponse{
		User:      user,
		BlockedAt: block.CreatedAt.Format(time.RFC3339),
	}
}
