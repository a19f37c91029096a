package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/loopsocial/loop-api/internal/middleware"
	"github.com/loopsocial/loop-api/internal/pkg/response"
	"github.com/loopsocial/loop-api/internal/pkg/validator"
)

// Handler handles user profile HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates user handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetProfile handles GET /users/{id}
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || targetID <= 0 {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	viewerID := middleware.GetUserID(r.Context())
	u, rc, err := h.service.GetProfile(r.Context(), viewerID, targetID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, ProfileFromEntity(u, rc))
}

// Search handles GET /users/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	req := SearchRequest{
		Query: r.URL.Query().Get("q"),
		Page:  queryInt(r, "page", 1),
		Limit: queryInt(r, "limit", 20),
	}
	if fieldErrors := validator.ValidateStruct(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	viewerID := middleware.GetUserID(r.Context())
	offset := (req.Page - 1) * req.Limit
	items, total, err := h.service.Search(r.Context(), viewerID, req.Query, req.Limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	results := make([]*SuggestionResponse, 0, len(items))
	for _, item := range items {
		results = append(results, SuggestionFromEntity(item))
	}

	response.WithMeta(w, results, response.Meta{
		Total:   total,
		Page:    req.Page,
		Limit:   req.Limit,
		Pages:   (total + req.Limit - 1) / req.Limit,
		HasNext: req.Page*req.Limit < total,
		HasPrev: req.Page > 1,
	})
}

// Suggest handles GET /users/suggestions
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	req := SuggestRequest{
		Limit: queryInt(r, "limit", 10),
	}
	if fieldErrors := validator.ValidateStruct(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	userID := middleware.GetUserID(r.Context())
	items, err := h.service.Suggest(r.Context(), userID, req.Limit)
	if err != nil {
		response.InternalError(w)
		return
	}

	results := make([]*SuggestionResponse, 0, len(items))
	for _, item := range items {
		results = append(results, SuggestionFromEntity(item))
	}

	response.OK(w, results)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if s := r.URL.Query().Get(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return defaultValue
}
