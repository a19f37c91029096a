package relationship

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/loopsocial/loop-api/internal/middleware"
	"github.com/loopsocial/loop-api/internal/pkg/response"
)

// ProfileFetcher interface to retrieve user details for list hydration
type ProfileFetcher interface {
	GetSummaries(ctx context.Context, userIDs []int64) (map[int64]*UserSummary, error)
}

// Handler handles relationship HTTP requests
type Handler struct {
	service        *Service
	profileFetcher ProfileFetcher
}

// NewHandler creates relationship handler
func NewHandler(service *Service, profileFetcher ProfileFetcher) *Handler {
	return &Handler{
		service:        service,
		profileFetcher: profileFetcher,
	}
}

// ToggleFollow handles POST /users/{id}/follow
func (h *Handler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	actorID := middleware.GetUserID(r.Context())
	result, err := h.service.ToggleFollow(r.Context(), actorID, targetID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	response.OK(w, FollowToggleResponse{Result: result})
}

// Unfollow handles DELETE /users/{id}/follow
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	actorID := middleware.GetUserID(r.Context())
	if err := h.service.Unfollow(r.Context(), actorID, targetID); err != nil {
		h.respondError(w, err)
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
}

// AcceptRequest handles POST /requests/{id}/accept
func (h *Handler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	accepterID := middleware.GetUserID(r.Context())
	if err := h.service.AcceptRequest(r.Context(), accepterID, requesterID); err != nil {
		h.respondError(w, err)
		return
	}

	response.OK(w, map[string]string{"status": "accepted"})
}

// DeclineRequest handles POST /requests/{id}/decline
func (h *Handler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	accepterID := middleware.GetUserID(r.Context())
	if err := h.service.DeclineRequest(r.Context(), accepterID, requesterID); err != nil {
		h.respondError(w, err)
		return
	}

	response.OK(w, map[string]string{"status": "declined"})
}

// Block handles POST /users/{id}/block
func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	blockerID := middleware.GetUserID(r.Context())
	result, err := h.service.Block(r.Context(), blockerID, targetID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	response.OK(w, BlockResponse{Result: result})
}

// Unblock handles DELETE /users/{id}/block
func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	blockerID := middleware.GetUserID(r.Context())
	result, err := h.service.Unblock(r.Context(), blockerID, targetID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	response.OK(w, UnblockResponse{Result: result})
}

// ListFollowers handles GET /users/{id}/followers
func (h *Handler) ListFollowers(w http.ResponseWriter, r *http.Request) {
	h.listEdges(w, r, h.service.ListFollowers, func(e *FollowEdge) int64 { return e.FollowerID })
}

// ListFollowing handles GET /users/{id}/following
func (h *Handler) ListFollowing(w http.ResponseWriter, r *http.Request) {
	h.listEdges(w, r, h.service.ListFollowing, func(e *FollowEdge) int64 { return e.FollowingID })
}

// ListFriends handles GET /users/{id}/friends
func (h *Handler) ListFriends(w http.ResponseWriter, r *http.Request) {
	h.listEdges(w, r, h.service.ListFriends, func(e *FollowEdge) int64 { return e.FollowingID })
}

// ListPendingIncoming handles GET /users/me/requests
func (h *Handler) ListPendingIncoming(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	p := parsePagination(r)

	result, err := h.service.ListPendingIncoming(r.Context(), userID, p)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondEdgeList(w, r, result, p, func(e *FollowEdge) int64 { return e.FollowerID })
}

// ListPendingOutgoing handles GET /users/me/requests/sent
func (h *Handler) ListPendingOutgoing(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	p := parsePagination(r)

	result, err := h.service.ListPendingOutgoing(r.Context(), userID, p)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondEdgeList(w, r, result, p, func(e *FollowEdge) int64 { return e.FollowingID })
}

// ListBlocked handles GET /users/me/blocked
func (h *Handler) ListBlocked(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	p := parsePagination(r)

	result, err := h.service.ListBlocked(r.Context(), userID, p)
	if err != nil {
		h.respondError(w, err)
		return
	}

	ids := make([]int64, 0, len(result.Blocks))
	for _, b := range result.Blocks {
		ids = append(ids, b.BlockedID)
	}
	summaries := h.fetchSummaries(r.Context(), ids)

	items := make([]*BlockedUserResponse, 0, len(result.Blocks))
	for _, b := range result.Blocks {
		items = append(items, BlockedUserFromEdge(b, summaries[b.BlockedID]))
	}

	response.WithMeta(w, items, listMeta(result.Total, p))
}

type listFn func(ctx context.Context, userID, viewerID int64, p *Pagination) (*ListResult, error)

func (h *Handler) listEdges(w http.ResponseWriter, r *http.Request, list listFn, partner func(*FollowEdge) int64) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	viewerID := middleware.GetUserID(r.Context())
	p := parsePagination(r)

	result, err := list(r.Context(), userID, viewerID, p)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondEdgeList(w, r, result, p, partner)
}

func (h *Handler) respondEdgeList(w http.ResponseWriter, r *http.Request, result *ListResult, p *Pagination, partner func(*FollowEdge) int64) {
	ids := make([]int64, 0, len(result.Edges))
	for _, e := range result.Edges {
		ids = append(ids, partner(e))
	}
	summaries := h.fetchSummaries(r.Context(), ids)

	items := make([]*RelationUserResponse, 0, len(result.Edges))
	for _, e := range result.Edges {
		items = append(items, RelationUserFromEdge(e, summaries[partner(e)]))
	}

	response.WithMeta(w, items, listMeta(result.Total, p))
}

func (h *Handler) fetchSummaries(ctx context.Context, ids []int64) map[int64]*UserSummary {
	if len(ids) == 0 {
		return map[int64]*UserSummary{}
	}
	summaries, err := h.profileFetcher.GetSummaries(ctx, ids)
	if err != nil {
		// Listing still works without profile data
		return map[int64]*UserSummary{}
	}
	return summaries
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSelfReference):
		response.BadRequest(w, "Cannot perform this action on yourself")
	case errors.Is(err, ErrTargetNotFound):
		response.NotFound(w, "User not found")
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "Relationship not found")
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "Operation not allowed")
	case errors.Is(err, ErrTransientStore):
		response.ServiceUnavailable(w, "Temporary storage error, please retry")
	default:
		response.InternalError(w)
	}
}

func pathUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid user ID")
		return 0, false
	}
	return id, true
}

func parsePagination(r *http.Request) *Pagination {
	page := 1
	limit := 20
	query := r.URL.Query()
	if p := query.Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if l := query.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	return &Pagination{Page: page, Limit: limit}
}

func listMeta(total int, p *Pagination) response.Meta {
	return response.Meta{
		Total:   total,
		Page:    p.Page,
		Limit:   p.Limit,
		Pages:   (total + p.Limit - 1) / p.Limit,
		HasNext: p.Page*p.Limit < total,
		HasPrev: p.Page > 1,
	}
}
