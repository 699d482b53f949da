package session

import (
	"sync"

	"github.com/Ayan1Dutta/InterviewEasy/internal/models"
)

// Room is the non-durable runtime state for one interview: connected clients,
// the active language cell and per-language snapshot version counters. It is
// rebuilt from the durable CodeDocument after a restart, counters back at zero.
type Room struct {
	Code string

	mu       sync.Mutex
	closed   bool
	clients  map[*Client]struct{}
	language models.Language
	versions map[models.Language]int64
}

func NewRoom(code string) *Room {
	return &Room{
		Code:     code,
		clients:  make(map[*Client]struct{}),
		language: models.DefaultLanguage,
		versions: make(map[models.Language]int64),
	}
}

func (r *Room) Join(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
}

// Leave removes the client and returns how many remain connected.
func (r *Room) Leave(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	return len(r.clients)
}

// Close marks the room ended and evicts every client. Frames arriving on an
// evicted member's connection afterwards are refused by the dispatcher, so an
// ended room can neither relay edits nor resurrect its deleted CodeDocument.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.clients = make(map[*Client]struct{})
}

func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Room) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// HasIdentity reports whether a connected client is already attached as email.
func (r *Room) HasIdentity(email string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.clients {
		if _, e, ok := c.Presence(); ok && e == email {
			return true
		}
	}
	return false
}

func (r *Room) ActiveLanguage() models.Language {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.language
}

// SetActiveLanguage overwrites the single coordinator-of-record cell.
// Last writer wins by arrival order.
func (r *Room) SetActiveLanguage(l models.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.language = l
}

func (r *Room) Version(l models.Language) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.versions[l]
}

// AdvanceVersion accepts version only if it strictly exceeds the tracked
// counter for that language. A stale or duplicate version is a no-op.
func (r *Room) AdvanceVersion(l models.Language, version int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if version <= r.versions[l] {
		return false
	}
	r.versions[l] = version
	return true
}

// Broadcast delivers frame to every member except the sender.
func (r *Room) Broadcast(sender *Client, frame models.WSFrame) {
	for _, c := range r.members() {
		if c == sender {
			continue
		}
		c.Send(frame)
	}
}

// BroadcastAll delivers frame to every member, the sender included.
func (r *Room) BroadcastAll(frame models.WSFrame) {
	for _, c := range r.members() {
		c.Send(frame)
	}
}

func (r *Room) members() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		out = append(out, c)
	}
	return out
}
