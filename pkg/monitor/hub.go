package monitor

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/MMintLab/libfranka/internal/log"
)

const (
	// writeWait is how long to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound frames; subscribers never send payloads.
	maxMessageSize = 1024
)

// stateHub fans freshly encoded state snapshots out to every websocket
// subscriber. A single goroutine owns the subscriber set; subscribers that
// cannot keep up with the snapshot rate are dropped rather than letting
// them stall the broadcast.
type stateHub struct {
	subscribers map[*subscriber]bool
	broadcast   chan []byte
	register    chan *subscriber
	unregister  chan *subscriber
	stop        chan struct{}

	mu sync.RWMutex
}

func newStateHub() *stateHub {
	return &stateHub{
		subscribers: make(map[*subscriber]bool),
		broadcast:   make(chan []byte, 64),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		stop:        make(chan struct{}),
	}
}

func (h *stateHub) run() {
	logger := log.Component("monitor")
	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			for sub := range h.subscribers {
				close(sub.send)
				delete(h.subscribers, sub)
			}
			h.mu.Unlock()
			return

		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = true
			count := len(h.subscribers)
			h.mu.Unlock()
			logger.Info("subscriber connected", "subscribers", count)

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.send)
			}
			count := len(h.subscribers)
			h.mu.Unlock()
			logger.Info("subscriber disconnected", "subscribers", count)

		case payload := <-h.broadcast:
			h.mu.RLock()
			for sub := range h.subscribers {
				select {
				case sub.send <- payload:
				default:
					// Too slow for the snapshot rate; disconnect.
					close(sub.send)
					delete(h.subscribers, sub)
					logger.Warn("dropped slow subscriber")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// publish queues a snapshot for broadcast, dropping it when the hub is
// backed up. Snapshots are periodic; the next one supersedes a lost one.
func (h *stateHub) publish(payload []byte) {
	select {
	case h.broadcast <- payload:
	default:
	}
}

func (h *stateHub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// subscriber is one websocket connection receiving the snapshot stream.
type subscriber struct {
	hub  *stateHub
	conn *websocket.Conn
	send chan []byte
}

func newSubscriber(h *stateHub, conn *websocket.Conn) *subscriber {
	sub := &subscriber{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 64),
	}
	h.register <- sub
	return sub
}

// serve pumps the connection until it closes. Called from the websocket
// handler goroutine.
func (s *subscriber) serve() {
	go s.writePump()
	s.readPump()
}

// readPump discards inbound frames; it exists to answer pings and to notice
// disconnection.
func (s *subscriber) readPump() {
	defer func() {
		s.hub.unregister <- s
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
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

// writePump is the only goroutine writing to the connection.
func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
