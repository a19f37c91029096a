package relationship

import "errors"

var (
	// ErrSelfReference is returned when actor and target are the same user
	ErrSelfReference = errors.New("cannot perform this action on yourself")
	// ErrTargetNotFound is returned when the target user does not exist or is inactive
	ErrTargetNotFound = errors.New("target user not found")
	// ErrForbidden is returned when policy disallows the operation
	ErrForbidden = errors.New("operation not allowed")
	// ErrNotFound is returned when the expected edge is absent
	ErrNotFound = errors.New("relationship not found")
	// ErrTransientStore is returned when the underlying storage call failed;
	// the caller may retry the whole operation once
	ErrTransientStore = errors.New("transient storage error")

	// ErrEdgeExists is the repository-level translation of a unique-constraint
	// violation on (follower_id, following_id)
	ErrEdgeExists = errors.New("follow edge already exists")
	// ErrBlockExists is the repository-level translation of a unique-constraint
	// violation on (blocker_id, blocked_id)
	ErrBlockExists = errors.New("block edge already exists")
)
