package httpapi

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// PreviewMessageType discriminates the small set of messages the live
// preview channel carries.
type PreviewMessageType string

const (
	PreviewFrame PreviewMessageType = "frame"
	PreviewStats PreviewMessageType = "stats"
)

// PreviewMessage is one broadcast unit on the live preview channel.
type PreviewMessage struct {
	Type      PreviewMessageType `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Data      interface{}        `json:"data"`
}

type previewClient struct {
	id   string
	conn *websocket.Conn
	send chan PreviewMessage
}

// PreviewHub fans out frame-preview and stat broadcasts to every connected
// websocket client, decoupling the render loop from slow/blocked viewers.
type PreviewHub struct {
	mu         sync.RWMutex
	clients    map[string]*previewClient
	broadcast  chan PreviewMessage
	register   chan *previewClient
	unregister chan *previewClient
}

// NewPreviewHub creates an idle hub; call Run in its own goroutine to start
// fanning out broadcasts.
func NewPreviewHub() *PreviewHub {
	return &PreviewHub{
		clients:    make(map[string]*previewClient),
		broadcast:  make(chan PreviewMessage, 256),
		register:   make(chan *previewClient),
		unregister: make(chan *previewClient),
	}
}

// Run is the hub's event loop; blocks until the process exits.
func (h *PreviewHub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, c := range h.clients {
				select {
				case c.send <- msg:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues msgType/data for delivery to every connected client.
// Non-blocking: a full broadcast channel drops the message rather than
// stalling the render loop.
func (h *PreviewHub) Broadcast(msgType PreviewMessageType, data interface{}) {
	msg := PreviewMessage{Type: msgType, Timestamp: time.Now(), Data: data}
	select {
	case h.broadcast <- msg:
	default:
	}
}

// ClientCount reports the number of connected preview clients.
func (h *PreviewHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleConn adopts an upgraded websocket connection as a preview client
// and blocks until it disconnects.
func (h *PreviewHub) HandleConn(conn *websocket.Conn) {
	c := &previewClient{
		id:   fmt.Sprintf("preview-%d", time.Now().UnixNano()),
		conn: conn,
		send: make(chan PreviewMessage, 256),
	}
	h.register <- c

	go c.writePump()
	c.readPump(h)
}

func (c *previewClient) readPump(h *PreviewHub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *previewClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
