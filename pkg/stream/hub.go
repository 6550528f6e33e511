package stream

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Broadcaster is what the mutation layer publishes through. It is an
// explicit collaborator, never a process-wide singleton, so mutation and
// broadcast can be tested independently.
type Broadcaster interface {
	// Publish enqueues one notification for delivery to all connected
	// clients. It never reports delivery failure: broadcast is
	// fire-and-forget and must not fail the originating mutation.
	Publish(n Notification)
}

// NopBroadcaster drops everything; used by tests that don't care about
// propagation.
type NopBroadcaster struct{}

func (NopBroadcaster) Publish(Notification) {}

// subscriberBuffer is the per-client queue depth. A client that falls this
// far behind starts losing notifications (it can always recover state via
// the request API; there is no replay).
const subscriberBuffer = 64

// Subscription is one connected client's feed.
type Subscription struct {
	ID string
	C  <-chan Notification

	ch chan Notification
}

// Hub is the connection registry and broadcaster. A single dispatcher
// goroutine drains an ordered queue, so delivery order always matches
// publish order (which the mutation layer aligns with commit order), and
// every registered client sees each notification exactly once. There is no
// per-client targeting and no topic scoping: every client receives every
// notification.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]*Subscription
	queue       chan Notification
	done        chan struct{}
	closed      bool
	logger      *slog.Logger
}

// NewHub creates the hub and starts its dispatcher.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		subscribers: make(map[string]*Subscription),
		queue:       make(chan Notification, 256),
		done:        make(chan struct{}),
		logger:      logger.With("component", "stream"),
	}
	go h.dispatch()
	return h
}

// Subscribe registers a new client and returns its feed.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		ID: uuid.New().String(),
		ch: make(chan Notification, subscriberBuffer),
	}
	sub.C = sub.ch

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub
	}
	h.subscribers[sub.ID] = sub
	h.logger.Debug("client subscribed", "client_id", sub.ID, "connected", len(h.subscribers))
	return sub
}

// Unsubscribe removes a client and closes its feed. Safe to call twice.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, ok := h.subscribers[id]
	if !ok {
		return
	}
	delete(h.subscribers, id)
	close(sub.ch)
	h.logger.Debug("client unsubscribed", "client_id", id, "connected", len(h.subscribers))
}

// Publish enqueues a notification. Ordering is the enqueue order; callers
// publish synchronously after commit so the stream follows the mutation
// stream. Publishing to a closed hub is a no-op.
func (h *Hub) Publish(n Notification) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	select {
	case h.queue <- n:
	case <-h.done:
	}
}

// Close stops the dispatcher and closes every feed.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	close(h.done)
}

func (h *Hub) dispatch() {
	for {
		select {
		case n := <-h.queue:
			h.fanOut(n)
		case <-h.done:
			h.mu.Lock()
			for id, sub := range h.subscribers {
				delete(h.subscribers, id)
				close(sub.ch)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) fanOut(n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subscribers {
		select {
		case sub.ch <- n:
		default:
			// Slow consumer: drop, don't retry, don't block the stream.
			h.logger.Warn("dropping notification for slow client", "client_id", id, "kind", n.Kind)
		}
	}
}
