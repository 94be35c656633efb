package session

import (
	"encoding/json"
	"sync"

	"github.com/empiresrv/empireserver/pkg/logger"
)

// Hub :
// Owns every bound connection, keyed by uid, and implements
// internal/worldloop's Broadcaster contract. Connections are bound and
// unbound directly on a mutex-guarded map keyed by uid (every message
// family in spec.md §6 is addressed to a bound session, not a bare
// connection); no register/unregister channels are used.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*connection
	log   logger.Logger
}

func newHub(log logger.Logger) *Hub {
	return &Hub{
		conns: make(map[string]*connection),
		log:   log,
	}
}

// NewHub :
// Exported constructor so cmd/empireserver can build a Hub before the
// world loop exists and pass it in as the loop's Broadcaster, then hand
// the same Hub to NewServer — breaking the otherwise-circular
// dependency between the loop (needs a Broadcaster at construction)
// and the server (needs the constructed loop).
func NewHub(log logger.Logger) *Hub {
	return newHub(log)
}

// bind :
// Associates a freshly-authenticated connection with its uid, replacing
// any previous connection already bound to it (a second login from a
// new device displaces the first).
func (h *Hub) bind(uid string, c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.conns[uid]; ok && old != c {
		close(old.out)
	}
	c.uid = uid
	h.conns[uid] = c
}

// unbind :
// Removes a connection from the hub, but only if it is still the one
// registered for its uid (a displaced connection's own readPump exit
// must not evict the connection that replaced it).
func (h *Hub) unbind(c *connection) {
	if c.uid == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.conns[c.uid]; ok && current == c {
		delete(h.conns, c.uid)
	}
}

// Send :
// Implements worldloop.Broadcaster. Best-effort delivery to a single
// uid's bound connection; returns false if unbound or its queue is
// full.
func (h *Hub) Send(uid string, message interface{}) bool {
	h.mu.RLock()
	c, ok := h.conns[uid]
	h.mu.RUnlock()

	if !ok {
		return false
	}

	payload, err := json.Marshal(message)
	if err != nil {
		if h.log != nil {
			h.log.Trace(logger.Error, "session", "could not marshal outbound message")
		}
		return false
	}

	return c.enqueue(payload)
}

// Broadcast :
// Implements worldloop.Broadcaster. Delivers to every uid in the set
// that has a bound connection, returning the count actually enqueued.
func (h *Hub) Broadcast(uids map[string]struct{}, message interface{}) int {
	payload, err := json.Marshal(message)
	if err != nil {
		if h.log != nil {
			h.log.Trace(logger.Error, "session", "could not marshal outbound broadcast")
		}
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for uid := range uids {
		if c, ok := h.conns[uid]; ok {
			if c.enqueue(payload) {
				delivered++
			}
		}
	}
	return delivered
}

// ConnectionCount :
// Returns the number of currently-bound connections, surfaced by
// internal/telemetry-adjacent health reporting.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
