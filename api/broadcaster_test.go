package api

import (
	"testing"
	"time"
)

func TestSubscribeAndPublish(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	sub := b.Subscribe("sess-1")
	defer b.Unsubscribe(sub)

	b.Publish(SessionUpdate{
		SessionID: "sess-1",
		Input:     ".EQUB 1,2",
		Bytes:     []byte{1, 2},
		Symbols:   map[string]interface{}{"FOO": float64(1)},
	})

	select {
	case update := <-sub.Channel:
		if update.SessionID != "sess-1" {
			t.Errorf("SessionID = %v, want sess-1", update.SessionID)
		}
		if update.Input != ".EQUB 1,2" {
			t.Errorf("Input = %v, want .EQUB 1,2", update.Input)
		}
		if len(update.Bytes) != 2 {
			t.Errorf("Bytes = %v, want [1 2]", update.Bytes)
		}
		if update.Symbols["FOO"] != float64(1) {
			t.Errorf("Symbols[FOO] = %v, want 1", update.Symbols["FOO"])
		}
	case <-time.After(time.Second):
		t.Fatal("expected an update on the subscription channel")
	}
}

func TestPublishFiltersBySessionID(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	sub := b.Subscribe("sess-1")
	defer b.Unsubscribe(sub)

	b.Publish(SessionUpdate{SessionID: "sess-2"})

	select {
	case update := <-sub.Channel:
		t.Fatalf("unexpected update for unrelated session: %+v", update)
	default:
	}
}

func TestPublishCarriesErrorInsteadOfBytes(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	sub := b.Subscribe("sess-1")
	defer b.Unsubscribe(sub)

	b.Publish(SessionUpdate{SessionID: "sess-1", Input: "1/0", Error: "division by zero"})

	select {
	case update := <-sub.Channel:
		if update.Error != "division by zero" {
			t.Errorf("Error = %q, want %q", update.Error, "division by zero")
		}
		if update.Bytes != nil {
			t.Errorf("Bytes = %v, want nil on error", update.Bytes)
		}
	case <-time.After(time.Second):
		t.Fatal("expected an update on the subscription channel")
	}
}

func TestSubscriptionCount(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	if got := b.SubscriptionCount(); got != 0 {
		t.Fatalf("SubscriptionCount() = %d, want 0", got)
	}

	sub := b.Subscribe("")
	if got := b.SubscriptionCount(); got != 1 {
		t.Fatalf("SubscriptionCount() = %d, want 1", got)
	}

	b.Unsubscribe(sub)
}
