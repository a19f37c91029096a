package notification

import (
	"encoding/json"
	"testing"
)

func TestHubLocalDelivery(t *testing.T) {
	h := NewHub(nil, nil)

	c := &Connection{userID: 7, send: make(chan []byte, sendBufferSize)}
	h.register(c)

	h.Publish(7, map[string]string{"type": "notification:new"})

	select {
	case payload := <-c.send:
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if decoded["type"] != "notification:new" {
			t.Fatalf("unexpected payload: %s", payload)
		}
	default:
		t.Fatal("expected payload on connection channel")
	}

	// Other users receive nothing
	other := &Connection{userID: 8, send: make(chan []byte, sendBufferSize)}
	h.register(other)
	h.Publish(7, map[string]string{"type": "notification:new"})
	if len(other.send) != 0 {
		t.Fatal("payload leaked to another user's connection")
	}
}

func TestHubDropsSlowConsumer(t *testing.T) {
	h := NewHub(nil, nil)

	c := &Connection{userID: 7, send: make(chan []byte, 1)}
	h.register(c)

	h.Publish(7, "first")
	h.Publish(7, "second") // buffer full, dropped

	if len(c.send) != 1 {
		t.Fatalf("expected exactly one buffered payload, got %d", len(c.send))
	}
}
