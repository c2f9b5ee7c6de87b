package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	closed chan struct{}
	once   sync.Once
}

// queue disconnects a client that cannot keep up. Frames are deltas, so
// a dropped one would leave the client out of step; it resyncs when it
// reconnects.
func (c *client) queue(msg []byte) {
	select {
	case c.send <- msg:
	case <-c.closed:
	default:
		c.close()
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

func (c *client) writer() {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}

		case <-c.closed:
			return
		}
	}
}
