package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pingball/backend/internal/game"
	"github.com/vmihailenco/msgpack/v5"
)

// spectator receives msgpack snapshots of one board.
type spectator struct {
	conn *websocket.Conn
	send chan []byte
}

// SpectatorHub fans board snapshots out to renderers.
type SpectatorHub struct {
	clients    map[*spectator]bool
	register   chan *spectator
	unregister chan *spectator
	buffer     int
	done       chan struct{}
	mu         sync.RWMutex
}

func NewSpectatorHub(buffer int) *SpectatorHub {
	if buffer < 1 {
		buffer = 1
	}
	return &SpectatorHub{
		clients:    make(map[*spectator]bool),
		register:   make(chan *spectator),
		unregister: make(chan *spectator),
		buffer:     buffer,
		done:       make(chan struct{}),
	}
}

// Run owns registration until ctx is cancelled.
func (h *SpectatorHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for s := range h.clients {
				close(s.send)
				delete(h.clients, s)
			}
			h.mu.Unlock()
			return

		case s := <-h.register:
			h.mu.Lock()
			h.clients[s] = true
			h.mu.Unlock()
			log.Printf("[WS] Spectator connected (%d watching)", h.Count())

		case s := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[s]; ok {
				delete(h.clients, s)
				close(s.send)
			}
			h.mu.Unlock()
			log.Printf("[WS] Spectator disconnected (%d watching)", h.Count())
		}
	}
}

func (h *SpectatorHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast encodes snap once and queues it for every spectator. Slow
// spectators miss frames.
func (h *SpectatorHub) Broadcast(snap game.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}

	data, err := msgpack.Marshal(snap)
	if err != nil {
		log.Printf("[WS] Error encoding snapshot: %v", err)
		return
	}
	for s := range h.clients {
		select {
		case s.send <- data:
		default:
			log.Printf("[WS] Spectator buffer full, dropping frame")
		}
	}
}

// HandleSpectatorSocket streams snapshots to a renderer.
func HandleSpectatorSocket(hub *SpectatorHub, board *game.Board) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		s := &spectator{conn: conn, send: make(chan []byte, hub.buffer)}
		if data, err := msgpack.Marshal(board.Snapshot()); err == nil {
			s.send <- data
		}
		select {
		case hub.register <- s:
		case <-hub.done:
			conn.Close()
			return
		}

		go s.writePump()
		go s.readPump(hub)
	}
}

func (s *spectator) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards input; it exists to process control frames.
func (s *spectator) readPump(hub *SpectatorHub) {
	defer func() {
		select {
		case hub.unregister <- s:
		case <-hub.done:
		}
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxLineBytes)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
