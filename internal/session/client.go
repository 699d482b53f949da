package session

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Ayan1Dutta/InterviewEasy/internal/models"
)

// Client wraps one live connection. Room code and email are attached on join
// so a bare transport close can still be attributed to a room/user pair.
type Client struct {
	Conn *websocket.Conn

	mu       sync.Mutex
	hook     func(models.WSFrame)
	roomCode string
	email    string
}

func NewClient(conn *websocket.Conn) *Client { return &Client{Conn: conn} }

// SetSendHook replaces the default WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(models.WSFrame)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

// Attach records which room/user this connection represents.
func (c *Client) Attach(roomCode, email string) {
	c.mu.Lock()
	c.roomCode = roomCode
	c.email = email
	c.mu.Unlock()
}

// Presence returns the room/user pair attached at join time.
func (c *Client) Presence() (roomCode, email string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomCode, c.email, c.roomCode != ""
}

func (c *Client) Send(frame models.WSFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(frame)
		return
	}
	if c.Conn == nil {
		return
	}
	_ = c.Conn.WriteJSON(frame)
}

func (c *Client) SendError(msg string) {
	c.Send(models.WSFrame{Type: models.FrameError, Data: models.ErrorNotice{Message: msg}})
}
