package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type memoryNotificationRepo struct {
	items []*Notification
	fail  bool
}

func (m *memoryNotificationRepo) CreateIfUnseen(_ context.Context, n *Notification) (bool, error) {
	if m.fail {
		return false, errors.New("connection refused")
	}
	for _, existing := range m.items {
		if existing.UserID == n.UserID && existing.ActorID == n.ActorID &&
			existing.Type == n.Type && !existing.IsRead {
			return false, nil
		}
	}
	m.items = append(m.items, n)
	return true, nil
}

func (m *memoryNotificationRepo) ListByUser(_ context.Context, userID int64, limit, offset int) ([]*Notification, error) {
	var out []*Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryNotificationRepo) CountUnreadByUser(_ context.Context, userID int64) (int, error) {
	count := 0
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memoryNotificationRepo) MarkAsRead(_ context.Context, userID int64, id uuid.UUID) (bool, error) {
	for _, n := range m.items {
		if n.ID == id && n.UserID == userID && !n.IsRead {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryNotificationRepo) MarkAllAsRead(_ context.Context, userID int64) error {
	for _, n := range m.items {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

type publisherStub struct {
	published []int64
}

func (p *publisherStub) Publish(userID int64, _ any) {
	p.published = append(p.published, userID)
}

func TestNotifyCreatesAndPublishes(t *testing.T) {
	repo := &memoryNotificationRepo{}
	pub := &publisherStub{}
	svc := NewService(repo, pub)

	svc.Notify(context.Background(), "following", 1, 2)

	if len(repo.items) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.items))
	}
	n := repo.items[0]
	if n.UserID != 2 || n.ActorID != 1 || n.Type != TypeFollowing {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if len(pub.published) != 1 || pub.published[0] != 2 {
		t.Fatalf("expected realtime publish to user 2, got %v", pub.published)
	}
}

func TestNotifySuppressesUnreadDuplicates(t *testing.T) {
	repo := &memoryNotificationRepo{}
	pub := &publisherStub{}
	svc := NewService(repo, pub)

	svc.Notify(context.Background(), "following", 1, 2)
	svc.Notify(context.Background(), "following", 1, 2)

	if len(repo.items) != 1 {
		t.Fatalf("duplicate unread should be suppressed, got %d items", len(repo.items))
	}
	if len(pub.published) != 1 {
		t.Fatalf("suppressed duplicate must not republish, got %d publishes", len(pub.published))
	}

	// Once read, the same event may notify again
	if _, err := svc.MarkAsRead(context.Background(), 2, repo.items[0].ID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	svc.Notify(context.Background(), "following", 1, 2)
	if len(repo.items) != 2 {
		t.Fatalf("expected new notification after read, got %d items", len(repo.items))
	}
}

func TestNotifySwallowsStoreFailure(t *testing.T) {
	repo := &memoryNotificationRepo{fail: true}
	pub := &publisherStub{}
	svc := NewService(repo, pub)

	// Must not panic and must not publish
	svc.Notify(context.Background(), "following", 1, 2)
	if len(pub.published) != 0 {
		t.Fatalf("failed insert must not publish, got %v", pub.published)
	}
}

func TestNotifyWithoutRealtime(t *testing.T) {
	repo := &memoryNotificationRepo{}
	svc := NewService(repo, nil)

	svc.Notify(context.Background(), "follow_request", 1, 2)
	if len(repo.items) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.items))
	}
}

func TestUnreadCountAndMarkAll(t *testing.T) {
	repo := &memoryNotificationRepo{}
	svc := NewService(repo, nil)

	svc.Notify(context.Background(), "following", 1, 2)
	svc.Notify(context.Background(), "request_accepted", 3, 2)

	count, err := svc.GetUnreadCount(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 unread, got %d", count)
	}

	if err := svc.MarkAllAsRead(context.Background(), 2); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	count, _ = svc.GetUnreadCount(context.Background(), 2)
	if count != 0 {
		t.Fatalf("expected 0 unread after mark-all, got %d", count)
	}
}
