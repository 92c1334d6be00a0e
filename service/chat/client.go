package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one live websocket connection belonging to one user. A user may
// hold several clients at once (multiple devices/tabs); each one keeps its
// own outbound queue consumed by a single writer goroutine, so a stalled
// peer never blocks fan-out to anyone else.
type Client struct {
	ConnID string          // unique per connection, assigned once
	UserID int64           // resolved from the token before registration
	WS     *websocket.Conn // underlying connection
	Send   chan []byte     // outbound queue (single writer consumes)

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(connID string, userID int64, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ConnID: connID,
		UserID: userID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// enqueue appends a frame to the outbound queue without blocking. A full
// queue means the peer cannot keep up; the caller disconnects it.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// Close shuts the connection down exactly once. The blocked read loop
// errors out and runs its own cleanup; Unregister is a no-op the second
// time around.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.WS != nil {
			_ = c.WS.Close()
		}
	})
}

// writePump is the connection's single writer: outbound frames in queue
// order plus periodic pings. Runs until Close or a write error.
func (c *Client) writePump(writeWait, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.Send:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.WS.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
