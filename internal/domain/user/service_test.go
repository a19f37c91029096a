package user

import (
	"context"
	"errors"
	"testing"

	"github.com/loopsocial/loop-api/internal/domain/relationship"
)

type userRepoStub struct {
	users      map[int64]*User
	candidates []*User
}

func (r *userRepoStub) GetByID(_ context.Context, id int64) (*User, error) {
	return r.users[id], nil
}

func (r *userRepoStub) GetByIDs(_ context.Context, ids []int64) ([]*User, error) {
	var out []*User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *userRepoStub) Search(_ context.Context, _ string, _, _ int) ([]*User, int, error) {
	return r.candidates, len(r.candidates), nil
}

func (r *userRepoStub) SuggestCandidates(_ context.Context, _ int64, _ int) ([]*User, error) {
	return r.candidates, nil
}

// relReaderStub records whether MutualFriendsCount received the precomputed
// friend set, and how often FriendIDs was recomputed.
type relReaderStub struct {
	context       *relationship.Context
	friends       []int64
	mutual        map[int64]int
	friendIDCalls int
	receivedSets  [][]int64
}

func (r *relReaderStub) ContextFor(context.Context, int64, int64) (*relationship.Context, error) {
	return r.context, nil
}

func (r *relReaderStub) FriendIDs(context.Context, int64) ([]int64, error) {
	r.friendIDCalls++
	return r.friends, nil
}

func (r *relReaderStub) MutualFriendsCount(_ context.Context, _, b int64, friendsOfA []int64) (int, error) {
	r.receivedSets = append(r.receivedSets, friendsOfA)
	return r.mutual[b], nil
}

func activeUser(id int64, username string) *User {
	return &User{ID: id, Username: username, DisplayName: username, Status: StatusActive}
}

func TestGetProfileWithContext(t *testing.T) {
	repo := &userRepoStub{users: map[int64]*User{
		2: activeUser(2, "bela"),
	}}
	rel := &relReaderStub{context: &relationship.Context{IsFollowing: true, MutualFriendsCount: 3}}
	svc := NewService(repo, rel)

	u, rc, err := svc.GetProfile(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if u.ID != 2 {
		t.Fatalf("expected user 2, got %d", u.ID)
	}
	if rc == nil || !rc.IsFollowing || rc.MutualFriendsCount != 3 {
		t.Fatalf("unexpected context: %+v", rc)
	}
}

func TestGetProfileSelfSkipsContext(t *testing.T) {
	repo := &userRepoStub{users: map[int64]*User{
		1: activeUser(1, "ana"),
	}}
	svc := NewService(repo, &relReaderStub{})

	_, rc, err := svc.GetProfile(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rc != nil {
		t.Fatalf("own profile must not carry relationship context, got %+v", rc)
	}
}

func TestGetProfileInactive(t *testing.T) {
	deactivated := activeUser(2, "gone")
	deactivated.Status = StatusDeactivated
	repo := &userRepoStub{users: map[int64]*User{2: deactivated}}
	svc := NewService(repo, &relReaderStub{})

	if _, _, err := svc.GetProfile(context.Background(), 1, 2); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, _, err := svc.GetProfile(context.Background(), 1, 99); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for missing user, got %v", err)
	}
}

func TestSuggestReusesFriendSet(t *testing.T) {
	repo := &userRepoStub{candidates: []*User{
		activeUser(2, "bela"),
		activeUser(3, "cleo"),
		activeUser(4, "dina"),
	}}
	rel := &relReaderStub{
		friends: []int64{10, 11},
		mutual:  map[int64]int{2: 2, 3: 1},
	}
	svc := NewService(repo, rel)

	items, err := svc.Suggest(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(items))
	}
	if items[0].MutualFriendsCount != 2 || items[1].MutualFriendsCount != 1 || items[2].MutualFriendsCount != 0 {
		t.Fatalf("unexpected mutual counts: %d %d %d",
			items[0].MutualFriendsCount, items[1].MutualFriendsCount, items[2].MutualFriendsCount)
	}

	// Friend set computed once for the whole batch and passed through
	if rel.friendIDCalls != 1 {
		t.Fatalf("expected a single FriendIDs call, got %d", rel.friendIDCalls)
	}
	for _, set := range rel.receivedSets {
		if len(set) != 2 {
			t.Fatalf("expected precomputed set of 2 friends, got %v", set)
		}
	}
}

func TestSearchSkipsSelfCount(t *testing.T) {
	repo := &userRepoStub{candidates: []*User{
		activeUser(1, "ana"), // viewer appears in their own search results
		activeUser(2, "bela"),
	}}
	rel := &relReaderStub{mutual: map[int64]int{1: 5, 2: 1}}
	svc := NewService(repo, rel)

	items, total, err := svc.Search(context.Background(), 1, "a", 20, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected total 2, got %d", total)
	}
	if items[0].MutualFriendsCount != 0 {
		t.Fatal("viewer's own row must not get a mutual count")
	}
	if items[1].MutualFriendsCount != 1 {
		t.Fatalf("expected mutual count 1, got %d", items[1].MutualFriendsCount)
	}
}

func TestIdentityAdapter(t *testing.T) {
	admin := activeUser(3, "root")
	admin.IsAdmin = true
	private := activeUser(4, "shy")
	private.RequiresApproval = true
	suspended := activeUser(5, "bad")
	suspended.Status = StatusSuspended

	repo := &userRepoStub{users: map[int64]*User{
		2: activeUser(2, "bela"),
		3: admin,
		4: private,
		5: suspended,
	}}
	adapter := NewIdentityAdapter(repo)
	ctx := context.Background()

	if ok, _ := adapter.Exists(ctx, 2); !ok {
		t.Fatal("active user should exist")
	}
	if ok, _ := adapter.Exists(ctx, 5); ok {
		t.Fatal("suspended user should not be targetable")
	}
	if ok, _ := adapter.Exists(ctx, 99); ok {
		t.Fatal("missing user should not exist")
	}
	if ok, _ := adapter.IsProtected(ctx, 3); !ok {
		t.Fatal("admin should be protected")
	}
	if ok, _ := adapter.IsProtected(ctx, 2); ok {
		t.Fatal("regular user should not be protected")
	}
	if ok, _ := adapter.RequiresApproval(ctx, 4); !ok {
		t.Fatal("private account should require approval")
	}
	if ok, _ := adapter.RequiresApproval(ctx, 2); ok {
		t.Fatal("open account should not require approval")
	}
}

func TestSummaryProvider(t *testing.T) {
	repo := &userRepoStub{users: map[int64]*User{
		2: activeUser(2, "bela"),
		3: activeUser(3, "cleo"),
	}}
	provider := NewSummaryProvider(repo)

	summaries, err := provider.GetSummaries(context.Background(), []int64{2, 3, 99})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[2].Username != "bela" || summaries[3].Username != "cleo" {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}
	if summaries[2].AvatarURL != nil {
		t.Fatal("null avatar must map to nil pointer")
	}
}
