package feed

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// sendBuffer is how many frames may queue for one client before it is
	// dropped as too slow.
	sendBuffer = 64
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// client is one websocket subscriber.
type client struct {
	id   string
	conn *websocket.Conn
	send chan Frame

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(id string, conn *websocket.Conn) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan Frame, sendBuffer),
		done: make(chan struct{}),
	}
}

// offer queues a frame without blocking. It reports false when the client's
// buffer is full.
func (c *client) offer(f Frame) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- f:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case f := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards anything the client sends and returns when the
// connection goes away.
func (c *client) readPump() {
	defer c.close()
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// registry tracks connected clients.
type registry struct {
	mu      sync.RWMutex
	clients map[string]*client
}

func newRegistry() *registry {
	return &registry{clients: make(map[string]*client)}
}

func (r *registry) add(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.id] = c
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// broadcast offers f to every client and returns the ones that could not
// keep up.
func (r *registry) broadcast(f Frame) []*client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var slow []*client
	for _, c := range r.clients {
		if !c.offer(f) {
			slow = append(slow, c)
		}
	}
	return slow
}

func (r *registry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		c.close()
		delete(r.clients, id)
	}
}
