package session

import "sync"

// Hub is the process-wide registry of live rooms, keyed by room code.
// Entries are created lazily on first join and dropped when the room empties
// or ends; independent rooms never contend on each other's lock.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]*Room)} }

// GetOrCreate returns the room for code, creating it if absent. The created
// flag is decided under the hub lock so concurrent first joins agree on which
// caller materialized the entry.
func (h *Hub) GetOrCreate(code string) (*Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[code]; ok {
		return r, false
	}
	r := NewRoom(code)
	h.rooms[code] = r
	return r, true
}

func (h *Hub) Get(code string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[code]
	return r, ok
}

func (h *Hub) Delete(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, code)
}

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
