package relationship

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Notification kinds emitted by the service
const (
	NotifyFollowRequest   = "follow_request"
	NotifyFollowing       = "following"
	NotifyRequestAccepted = "request_accepted"
)

// IdentityLookup resolves user existence and policy. Implemented by the user
// domain; failures here surface as ErrTargetNotFound / ErrForbidden.
type IdentityLookup interface {
	Exists(ctx context.Context, userID int64) (bool, error)
	IsProtected(ctx context.Context, userID int64) (bool, error)
	RequiresApproval(ctx context.Context, userID int64) (bool, error)
}

// Notifier delivers relationship events. Fire-and-forget: implementations
// swallow their own errors and must never fail the caller.
type Notifier interface {
	Notify(ctx context.Context, kind string, fromUserID, toUserID int64)
}

// CounterRefresher recomputes denormalized follower/following counts.
// Best-effort: failures are logged by the implementation, never returned.
type CounterRefresher interface {
	Refresh(ctx context.Context, userIDs ...int64)
}

// ListResult is a page of a derived relationship view
type ListResult struct {
	Edges   []*FollowEdge
	Total   int
	HasMore bool
}

// BlockListResult is a page of the block listing
type BlockListResult struct {
	Blocks  []*BlockEdge
	Total   int
	HasMore bool
}

// Service owns the follow/block edge state machine. Every operation takes the
// resolved actor id explicitly; session resolution is an upstream concern.
type Service struct {
	repo     Repository
	identity IdentityLookup
	notifier Notifier
	counters CounterRefresher
}

// NewService creates new relationship service
func NewService(repo Repository, identity IdentityLookup, notifier Notifier, counters CounterRefresher) *Service {
	return &Service{
		repo:     repo,
		identity: identity,
		notifier: notifier,
		counters: counters,
	}
}

// ToggleFollow creates or removes the actor→target edge. If an edge exists in
// any state it is deleted (unfollow / cancel request); otherwise a new edge is
// inserted, pending when the target requires approval. A unique-violation race
// on insert is translated into a fresh existence read, never surfaced.
func (s *Service) ToggleFollow(ctx context.Context, actorID, targetID int64) (FollowResult, error) {
	if actorID == targetID {
		return "", ErrSelfReference
	}
	if err := s.checkTargetExists(ctx, targetID); err != nil {
		return "", err
	}

	removed, err := s.repo.RemoveEdge(ctx, actorID, targetID)
	if err != nil {
		return "", storeErr("toggle follow: remove edge", err)
	}
	if removed != nil {
		if removed.IsActive() {
			s.counters.Refresh(ctx, actorID, targetID)
		}
		return ResultUnfollowed, nil
	}

	requiresApproval, err := s.identity.RequiresApproval(ctx, targetID)
	if err != nil {
		return "", storeErr("toggle follow: approval policy", err)
	}

	state := EdgeStateActive
	kind := NotifyFollowing
	result := ResultFollowed
	if requiresApproval {
		state = EdgeStatePending
		kind = NotifyFollowRequest
		result = ResultRequested
	}

	edge := &FollowEdge{
		FollowerID:  actorID,
		FollowingID: targetID,
		State:       state,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateEdge(ctx, edge); err != nil {
		if errors.Is(err, ErrEdgeExists) {
			// Lost an insert race: a concurrent call created the edge. Confirm
			// with a fresh read and report the created state.
			return s.resolveInsertRace(ctx, actorID, targetID)
		}
		return "", storeErr("toggle follow: insert edge", err)
	}

	if state == EdgeStateActive {
		s.counters.Refresh(ctx, actorID, targetID)
	}
	s.notifier.Notify(ctx, kind, actorID, targetID)
	return result, nil
}

func (s *Service) resolveInsertRace(ctx context.Context, actorID, targetID int64) (FollowResult, error) {
	edge, err := s.repo.GetEdge(ctx, actorID, targetID)
	if err != nil {
		return "", storeErr("toggle follow: race re-read", err)
	}
	if edge == nil {
		return "", storeErr("toggle follow: race re-read", errors.New("edge missing after unique violation"))
	}
	if edge.IsActive() {
		return ResultFollowed, nil
	}
	return ResultRequested, nil
}

// AcceptRequest transitions the pending requester→accepter edge to active
func (s *Service) AcceptRequest(ctx context.Context, accepterID, requesterID int64) error {
	activated, err := s.repo.ActivatePendingEdge(ctx, requesterID, accepterID)
	if err != nil {
		return storeErr("accept request", err)
	}
	if !activated {
		return ErrNotFound
	}

	s.counters.Refresh(ctx, accepterID, requesterID)
	s.notifier.Notify(ctx, NotifyRequestAccepted, accepterID, requesterID)
	return nil
}

// DeclineRequest deletes the pending requester→accepter edge. Pending edges
// are not counted, so no counter refresh is needed.
func (s *Service) DeclineRequest(ctx context.Context, accepterID, requesterID int64) error {
	deleted, err := s.repo.RemovePendingEdge(ctx, requesterID, accepterID)
	if err != nil {
		return storeErr("decline request", err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// Unfollow deletes the actor→other edge in any state. Only this direction is
// removed; if other also follows the actor, that reverse edge stays intact.
func (s *Service) Unfollow(ctx context.Context, actorID, otherID int64) error {
	removed, err := s.repo.RemoveEdge(ctx, actorID, otherID)
	if err != nil {
		return storeErr("unfollow", err)
	}
	if removed == nil {
		return ErrNotFound
	}

	if removed.IsActive() {
		s.counters.Refresh(ctx, actorID, otherID)
	}
	return nil
}

// Block inserts a block edge and removes any follow edges between the pair in
// both directions, atomically. Idempotent: a repeated block returns
// ResultAlreadyBlocked without error.
func (s *Service) Block(ctx context.Context, blockerID, targetID int64) (BlockResult, error) {
	if blockerID == targetID {
		return "", ErrSelfReference
	}
	if err := s.checkTargetExists(ctx, targetID); err != nil {
		return "", err
	}

	protected, err := s.identity.IsProtected(ctx, targetID)
	if err != nil {
		return "", storeErr("block: policy lookup", err)
	}
	if protected {
		return "", ErrForbidden
	}

	exists, err := s.repo.HasBlock(ctx, blockerID, targetID)
	if err != nil {
		return "", storeErr("block: existence check", err)
	}
	if exists {
		return ResultAlreadyBlocked, nil
	}

	block := &BlockEdge{
		BlockerID: blockerID,
		BlockedID: targetID,
		CreatedAt: time.Now(),
	}
	removed, err := s.repo.CreateBlockClearingEdges(ctx, block)
	if err != nil {
		if errors.Is(err, ErrBlockExists) {
			return ResultAlreadyBlocked, nil
		}
		return "", storeErr("block: insert", err)
	}

	for _, edge := range removed {
		if edge.IsActive() {
			s.counters.Refresh(ctx, blockerID, targetID)
			break
		}
	}
	return ResultBlocked, nil
}

// Unblock deletes the blocker→target block edge if present. Prior follow
// edges are not restored.
func (s *Service) Unblock(ctx context.Context, blockerID, targetID int64) (UnblockResult, error) {
	deleted, err := s.repo.DeleteBlock(ctx, blockerID, targetID)
	if err != nil {
		return "", storeErr("unblock", err)
	}
	if !deleted {
		return ResultNotBlocked, nil
	}
	return ResultUnblocked, nil
}

// ListFollowing returns the active edges going out from userID
func (s *Service) ListFollowing(ctx context.Context, userID, viewerID int64, p *Pagination) (*ListResult, error) {
	normalize(p)
	edges, total, err := s.repo.ListFollowing(ctx, userID, viewerID, p)
	if err != nil {
		return nil, storeErr("list following", err)
	}
	return newListResult(edges, total, p), nil
}

// ListFollowers returns the active edges coming in to userID
func (s *Service) ListFollowers(ctx context.Context, userID, viewerID int64, p *Pagination) (*ListResult, error) {
	normalize(p)
	edges, total, err := s.repo.ListFollowers(ctx, userID, viewerID, p)
	if err != nil {
		return nil, storeErr("list followers", err)
	}
	return newListResult(edges, total, p), nil
}

// ListPendingIncoming returns the follow-request inbox for userID
func (s *Service) ListPendingIncoming(ctx context.Context, userID int64, p *Pagination) (*ListResult, error) {
	normalize(p)
	edges, total, err := s.repo.ListPending(ctx, userID, userID, true, p)
	if err != nil {
		return nil, storeErr("list pending incoming", err)
	}
	return newListResult(edges, total, p), nil
}

// ListPendingOutgoing returns the requests userID has sent that are unanswered
func (s *Service) ListPendingOutgoing(ctx context.Context, userID int64, p *Pagination) (*ListResult, error) {
	normalize(p)
	edges, total, err := s.repo.ListPending(ctx, userID, userID, false, p)
	if err != nil {
		return nil, storeErr("list pending outgoing", err)
	}
	return newListResult(edges, total, p), nil
}

// ListFriends returns the mutual-follow view for userID
func (s *Service) ListFriends(ctx context.Context, userID, viewerID int64, p *Pagination) (*ListResult, error) {
	normalize(p)
	edges, total, err := s.repo.ListFriends(ctx, userID, viewerID, p)
	if err != nil {
		return nil, storeErr("list friends", err)
	}
	return newListResult(edges, total, p), nil
}

// ListBlocked returns the users blocked by userID
func (s *Service) ListBlocked(ctx context.Context, userID int64, p *Pagination) (*BlockListResult, error) {
	normalize(p)
	blocks, total, err := s.repo.ListBlocks(ctx, userID, p)
	if err != nil {
		return nil, storeErr("list blocked", err)
	}
	return &BlockListResult{
		Blocks:  blocks,
		Total:   total,
		HasMore: p.Page*p.Limit < total,
	}, nil
}

// IsFriend reports whether a and b actively follow each other
func (s *Service) IsFriend(ctx context.Context, a, b int64) (bool, error) {
	if a == b {
		return false, nil
	}
	mutual, err := s.repo.AreMutual(ctx, a, b)
	if err != nil {
		return false, storeErr("is friend", err)
	}
	return mutual, nil
}

// FriendIDs returns the ids of userID's friends, for callers that need the
// precomputed set (suggestion and search flows)
func (s *Service) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids, err := s.repo.FriendIDs(ctx, userID)
	if err != nil {
		return nil, storeErr("friend ids", err)
	}
	return ids, nil
}

// MutualFriendsCount counts shared friends of a and b, never counting b
// itself. friendsOfA, when non-nil, skips recomputing a's friend set.
func (s *Service) MutualFriendsCount(ctx context.Context, a, b int64, friendsOfA []int64) (int, error) {
	if friendsOfA == nil {
		ids, err := s.repo.FriendIDs(ctx, a)
		if err != nil {
			return 0, storeErr("mutual friends: friend set", err)
		}
		friendsOfA = ids
	}
	count, err := s.repo.CountFriendsAmong(ctx, b, friendsOfA, b)
	if err != nil {
		return 0, storeErr("mutual friends: count", err)
	}
	return count, nil
}

// ContextFor computes how viewerID relates to targetID for profile views
func (s *Service) ContextFor(ctx context.Context, viewerID, targetID int64) (*Context, error) {
	out, err := s.repo.GetEdge(ctx, viewerID, targetID)
	if err != nil {
		return nil, storeErr("relationship context: outgoing", err)
	}
	in, err := s.repo.GetEdge(ctx, targetID, viewerID)
	if err != nil {
		return nil, storeErr("relationship context: incoming", err)
	}
	blocked, err := s.repo.HasBlockBetween(ctx, viewerID, targetID)
	if err != nil {
		return nil, storeErr("relationship context: block", err)
	}
	mutualCount, err := s.MutualFriendsCount(ctx, viewerID, targetID, nil)
	if err != nil {
		return nil, err
	}

	rc := &Context{
		IsBlocked:          blocked,
		MutualFriendsCount: mutualCount,
	}
	if out != nil {
		rc.IsFollowing = out.IsActive()
		rc.IsRequested = out.State == EdgeStatePending
	}
	if in != nil {
		rc.IsFollowedBy = in.IsActive()
	}
	rc.IsFriend = rc.IsFollowing && rc.IsFollowedBy
	return rc, nil
}

func (s *Service) checkTargetExists(ctx context.Context, targetID int64) error {
	exists, err := s.identity.Exists(ctx, targetID)
	if err != nil {
		return storeErr("identity lookup", err)
	}
	if !exists {
		return ErrTargetNotFound
	}
	return nil
}

func newListResult(edges []*FollowEdge, total int, p *Pagination) *ListResult {
	return &ListResult{
		Edges:   edges,
		Total:   total,
		HasMore: p.Page*p.Limit < total,
	}
}

func normalize(p *Pagination) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 20
	}
}

func storeErr(op string, err error) error {
	log.Error().Err(err).Str("operation", op).Msg("Relationship store error")
	return fmt.Errorf("%s: %w", op, ErrTransientStore)
}
