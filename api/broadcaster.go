package api

import (
	"sync"
)

// SessionUpdate is the single event shape pushed to every client watching
// a session: the outcome of the line just assembled, plus the symbol
// table it left behind. Folding "result" and "symbols" into one message
// means a client always sees them in lockstep, and the broadcaster never
// has to reason about event-type filtering.
type SessionUpdate struct {
	SessionID string                 `json:"sessionId"`
	Input     string                 `json:"input"`
	Bytes     []byte                 `json:"bytes,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Symbols   map[string]interface{} `json:"symbols"`
}

// Subscription is a client's filtered view of the broadcast stream,
// scoped to one session (or every session, if SessionID is empty).
type Subscription struct {
	SessionID string
	Channel   chan SessionUpdate
}

// Broadcaster fans out session updates to every subscribed WebSocket
// client.
type Broadcaster struct {
	mu            sync.RWMutex
	subscriptions map[*Subscription]bool
	updates       chan SessionUpdate
	register      chan *Subscription
	unregister    chan *Subscription
	done          chan struct{}
}

// NewBroadcaster creates and starts a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		subscriptions: make(map[*Subscription]bool),
		updates:       make(chan SessionUpdate, 256),
		register:      make(chan *Subscription),
		unregister:    make(chan *Subscription),
		done:          make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broadcaster) run() {
	for {
		select {
		case sub := <-b.register:
			b.mu.Lock()
			b.subscriptions[sub] = true
			b.mu.Unlock()

		case sub := <-b.unregister:
			b.mu.Lock()
			if b.subscriptions[sub] {
				delete(b.subscriptions, sub)
				close(sub.Channel)
			}
			b.mu.Unlock()

		case update := <-b.updates:
			b.mu.RLock()
			for sub := range b.subscriptions {
				if sub.SessionID != "" && sub.SessionID != update.SessionID {
					continue
				}
				select {
				case sub.Channel <- update:
				default:
				}
			}
			b.mu.RUnlock()

		case <-b.done:
			b.mu.Lock()
			for sub := range b.subscriptions {
				close(sub.Channel)
			}
			b.subscriptions = make(map[*Subscription]bool)
			b.mu.Unlock()
			return
		}
	}
}

// Subscribe registers a new subscription. An empty sessionID subscribes
// to every session's updates.
func (b *Broadcaster) Subscribe(sessionID string) *Subscription {
	sub := &Subscription{
		SessionID: sessionID,
		Channel:   make(chan SessionUpdate, 64),
	}

	b.register <- sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.unregister <- sub
}

// Publish sends a session update to every matching subscription,
// dropping it if the broadcaster's queue is full rather than blocking
// the caller.
func (b *Broadcaster) Publish(update SessionUpdate) {
	select {
	case b.updates <- update:
	default:
	}
}

// Close shuts down the broadcaster and closes every subscription.
func (b *Broadcaster) Close() {
	close(b.done)
}

// SubscriptionCount returns the number of active subscriptions.
func (b *Broadcaster) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}
