package realtime

import (
	"sync"
	"time"
)

// Logical collection keys a mutation can invalidate.
const (
	CollectionDeals     = "deals.all"
	CollectionBoards    = "boards.all"
	CollectionDashboard = "dashboard.stats"
	CollectionContacts  = "contacts.all"
)

// InvalidationEvent tells a subscriber that a collection went stale and
// the next read must refetch.
type InvalidationEvent struct {
	Collection string    `json:"collection"`
	At         time.Time `json:"at"`
}

// InvalidationHub broadcasts staleness events to websocket subscribers
// and in-process watchers. Mutating services call Invalidate after
// their transaction commits, so anything refetched in response to an
// event reads committed state.
type InvalidationHub struct {
	mu       sync.RWMutex
	conns    map[string]map[*Conn]struct{}
	watchers map[string][]chan InvalidationEvent
}

func NewInvalidationHub() *InvalidationHub {
	return &InvalidationHub{
		conns:    make(map[string]map[*Conn]struct{}),
		watchers: make(map[string][]chan InvalidationEvent),
	}
}

func (h *InvalidationHub) Register(collection string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[collection] == nil {
		h.conns[collection] = make(map[*Conn]struct{})
	}
	h.conns[collection][conn] = struct{}{}
}

func (h *InvalidationHub) Unregister(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for collection, conns := range h.conns {
		if _, ok := conns[conn]; ok {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.conns, collection)
			}
		}
	}
	_ = conn.Close()
}

// Watch returns a channel receiving events for the collection. The
// channel is buffered; a slow watcher drops events rather than blocking
// the mutation path (the next event still forces a refetch).
func (h *InvalidationHub) Watch(collection string) <-chan InvalidationEvent {
	ch := make(chan InvalidationEvent, 16)
	h.mu.Lock()
	h.watchers[collection] = append(h.watchers[collection], ch)
	h.mu.Unlock()
	return ch
}

func (h *InvalidationHub) Invalidate(collections ...string) {
	event := InvalidationEvent{At: time.Now()}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, collection := range collections {
		event.Collection = collection
		for conn := range h.conns[collection] {
			_ = conn.WriteJSON(event)
		}
		for _, ch := range h.watchers[collection] {
			select {
			case ch <- event:
			default:
			}
		}
	}
}
