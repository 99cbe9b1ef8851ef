// Package realtime fans conversation events out to live connections.
//
// The Relay only tracks which connection joined which conversation room; it
// never touches persisted state. Delivery is at-most-once: every connection
// owns a bounded queue and an event that does not fit is dropped for that
// connection only.
package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Publisher hands an event to whatever fans it out: the local Relay, or the
// Redis bus when several instances share rooms.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Conn is one live client connection registered with the Relay.
type Conn struct {
	ID     string
	UserID string

	out   chan Event
	rooms map[string]struct{} // guarded by Relay.mu
	gone  bool                // guarded by Relay.mu
}

// Outbox is the connection's event queue. It is closed on Disconnect or
// Shutdown.
func (c *Conn) Outbox() <-chan Event { return c.out }

// Relay is the room table. Create it with New, stop it with Shutdown.
type Relay struct {
	log       *slog.Logger
	queueSize int

	mu     sync.RWMutex
	conns  map[string]*Conn
	rooms  map[string]map[string]*Conn
	closed bool
}

func New(log *slog.Logger, queueSize int) *Relay {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Relay{
		log:       log.With("component", "relay"),
		queueSize: queueSize,
		conns:     make(map[string]*Conn),
		rooms:     make(map[string]map[string]*Conn),
	}
}

// Connect registers a new connection for userID. After Shutdown the
// returned connection starts closed.
func (r *Relay) Connect(userID string) *Conn {
	c := &Conn{
		ID:     uuid.NewString(),
		UserID: userID,
		out:    make(chan Event, r.queueSize),
		rooms:  make(map[string]struct{}),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		c.gone = true
		close(c.out)
		return c
	}
	r.conns[c.ID] = c
	connectionsGauge.Inc()

	r.log.Debug("connection opened", "conn", c.ID, "user", userID, "total", len(r.conns))
	return c
}

// Join adds c to the conversation room. Joining twice is a no-op.
func (r *Relay) Join(c *Conn, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.gone {
		return
	}

	room, ok := r.rooms[conversationID]
	if !ok {
		room = make(map[string]*Conn)
		r.rooms[conversationID] = room
	}
	room[c.ID] = c
	c.rooms[conversationID] = struct{}{}
}

// Leave removes c from the conversation room.
func (r *Relay) Leave(c *Conn, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(c, conversationID)
}

func (r *Relay) leaveLocked(c *Conn, conversationID string) {
	if room, ok := r.rooms[conversationID]; ok {
		delete(room, c.ID)
		if len(room) == 0 {
			delete(r.rooms, conversationID)
		}
	}
	delete(c.rooms, conversationID)
}

// Disconnect removes c from every room and closes its outbox.
func (r *Relay) Disconnect(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnectLocked(c)
}

func (r *Relay) disconnectLocked(c *Conn) {
	if c.gone {
		return
	}
	for conv := range c.rooms {
		r.leaveLocked(c, conv)
	}
	delete(r.conns, c.ID)
	c.gone = true
	close(c.out)
	connectionsGauge.Dec()

	r.log.Debug("connection closed", "conn", c.ID, "user", c.UserID, "total", len(r.conns))
}

// Broadcast queues evt on every connection joined to evt.ConversationID and
// returns how many accepted it. Typing events skip evt.Origin. Never blocks.
func (r *Relay) Broadcast(evt Event) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for id, c := range r.rooms[evt.ConversationID] {
		if evt.Type == EventTypingStatus && id == evt.Origin {
			continue
		}
		if r.enqueue(c, evt) {
			delivered++
		}
	}
	return delivered
}

// Send queues evt on c alone, e.g. a pong or an error reply.
func (r *Relay) Send(c *Conn, evt Event) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c.gone {
		return false
	}
	return r.enqueue(c, evt)
}

// enqueue must run under r.mu (read or write) so c.out cannot be closed
// underneath it.
func (r *Relay) enqueue(c *Conn, evt Event) bool {
	select {
	case c.out <- evt:
		eventsDelivered.WithLabelValues(evt.Type).Inc()
		return true
	default:
		eventsDropped.WithLabelValues(evt.Type).Inc()
		r.log.Warn("relay queue full, dropping event", "conn", c.ID, "user", c.UserID, "type", evt.Type)
		return false
	}
}

// Publish broadcasts locally. It makes the Relay a Publisher for
// single-instance deployments.
func (r *Relay) Publish(_ context.Context, evt Event) error {
	r.Broadcast(evt)
	return nil
}

// Rooms returns the number of non-empty rooms.
func (r *Relay) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Connections returns the number of live connections.
func (r *Relay) Connections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Shutdown closes every connection. Later Connect calls return closed
// connections.
func (r *Relay) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for _, c := range r.conns {
		r.disconnectLocked(c)
	}
	r.log.Info("relay shut down")
}
