package relationship

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loopsocial/loop-api/internal/middleware"
	"github.com/loopsocial/loop-api/internal/pkg/jwt"
)

type summaryStub struct{}

func (summaryStub) GetSummaries(_ context.Context, userIDs []int64) (map[int64]*UserSummary, error) {
	out := make(map[int64]*UserSummary, len(userIDs))
	for _, id := range userIDs {
		out[id] = &UserSummary{ID: id, Username: "user"}
	}
	return out, nil
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Total int `json:"total"`
		Page  int `json:"page"`
		Limit int `json:"limit"`
	} `json:"meta"`
}

func newTestRouter(t *testing.T, f *fixture) (*chi.Mux, string) {
	t.Helper()

	jwtSvc := jwt.NewService("relationship-handler-secret", time.Hour)
	token, err := jwtSvc.GenerateAccessToken(1, false)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	h := NewHandler(f.svc, summaryStub{})
	auth := middleware.Auth(jwtSvc)

	r := chi.NewRouter()
	r.Route("/users", func(r chi.Router) {
		r.Use(auth)
		r.Get("/me/requests", h.ListPendingIncoming)
		r.Get("/me/blocked", h.ListBlocked)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/follow", h.ToggleFollow)
			r.Delete("/follow", h.Unfollow)
			r.Post("/block", h.Block)
			r.Delete("/block", h.Unblock)
			r.Get("/followers", h.ListFollowers)
		})
	})
	r.Route("/requests/{id}", func(r chi.Router) {
		r.Use(auth)
		r.Post("/accept", h.AcceptRequest)
		r.Post("/decline", h.DeclineRequest)
	})
	return r, token
}

func doRequest(t *testing.T, r http.Handler, token, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) *apiEnvelope {
	t.Helper()
	var env apiEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
	return &env
}

func TestFollowEndpoint(t *testing.T) {
	f := newFixture(1, 2)
	r, token := newTestRouter(t, f)

	rec := doRequest(t, r, token, http.MethodPost, "/users/2/follow")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	var data FollowToggleResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Result != ResultFollowed {
		t.Fatalf("expected followed, got %s", data.Result)
	}

	// Second toggle removes the edge
	rec = doRequest(t, r, token, http.MethodPost, "/users/2/follow")
	env = decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Result != ResultUnfollowed {
		t.Fatalf("expected unfollowed, got %s", data.Result)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(f *fixture)
		method string
		path   string
		status int
	}{
		{
			name:   "self follow",
			method: http.MethodPost,
			path:   "/users/1/follow",
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown target",
			method: http.MethodPost,
			path:   "/users/99/follow",
			status: http.StatusNotFound,
		},
		{
			name:   "invalid id",
			method: http.MethodPost,
			path:   "/users/abc/follow",
			status: http.StatusBadRequest,
		},
		{
			name:   "unfollow without edge",
			method: http.MethodDelete,
			path:   "/users/2/follow",
			status: http.StatusNotFound,
		},
		{
			name: "block protected account",
			setup: func(f *fixture) {
				f.identity.protected[2] = true
			},
			method: http.MethodPost,
			path:   "/users/2/block",
			status: http.StatusForbidden,
		},
		{
			name:   "accept without request",
			method: http.MethodPost,
			path:   "/requests/2/accept",
			status: http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(1, 2)
			if tc.setup != nil {
				tc.setup(f)
			}
			r, token := newTestRouter(t, f)

			rec := doRequest(t, r, token, tc.method, tc.path)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, rec.Code, rec.Body.String())
			}
			env := decodeEnvelope(t, rec)
			if env.Success {
				t.Fatal("expected success=false on error response")
			}
		})
	}
}

func TestStoreErrorMapsTo503(t *testing.T) {
	f := newFixture(1, 2)
	f.svc = NewService(&failingRepo{memoryRepo: f.repo}, f.identity, f.notifier, f.counters)
	r, token := newTestRouter(t, f)

	rec := doRequest(t, r, token, http.MethodPost, "/users/2/follow")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestUnauthenticatedRejected(t *testing.T) {
	f := newFixture(1, 2)
	r, _ := newTestRouter(t, f)

	rec := doRequest(t, r, "", http.MethodPost, "/users/2/follow")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestListFollowersMeta(t *testing.T) {
	f := newFixture(1)
	for id := int64(2); id <= 31; id++ {
		f.identity.users[id] = true
		f.mustFollow(t, id, 1)
	}
	r, token := newTestRouter(t, f)

	rec := doRequest(t, r, token, http.MethodGet, "/users/1/followers?page=2&limit=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	if env.Meta == nil {
		t.Fatal("expected meta in list response")
	}
	if env.Meta.Total != 30 || env.Meta.Page != 2 || env.Meta.Limit != 10 {
		t.Fatalf("unexpected meta: %+v", env.Meta)
	}

	var items []*RelationUserResponse
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(items))
	}
	for _, item := range items {
		if item.User == nil || item.User.Username == "" {
			t.Fatalf("expected hydrated user summary, got %+v", item)
		}
	}
}
