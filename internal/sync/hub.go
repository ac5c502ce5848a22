package sync

import (
	"encoding/json"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 2 * time.Second
	queueSize    = 64
)

// Hub fans events out to every connected TCP and websocket client.
// Published events are delivered by a single goroutine in publish order.
type Hub struct {
	mu        sync.Mutex
	clients   map[net.Conn]struct{}
	wsClients map[*websocket.Conn]struct{}
	logger    *slog.Logger

	queue     chan BookEvent
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		clients:   make(map[net.Conn]struct{}),
		wsClients: make(map[*websocket.Conn]struct{}),
		logger:    logger,
		queue:     make(chan BookEvent, queueSize),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go h.dispatch()
	return h
}

func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.wsClients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsClients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// Publish queues ev for broadcast without blocking the caller. When the
// queue is full the event is dropped; clients catch up on the next one.
func (h *Hub) Publish(ev BookEvent) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.queue <- ev:
	default:
		h.logger.Warn("event queue full, dropping event", "type", ev.Type, "book_id", ev.BookID)
	}
}

func (h *Hub) dispatch() {
	defer close(h.stopped)
	for {
		select {
		case ev := <-h.queue:
			h.BroadcastJSON(ev)
		case <-h.done:
			return
		}
	}
}

// Close stops the dispatcher. Events still queued are discarded.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
	<-h.stopped
}

// BroadcastJSON writes v as one JSON line to every client. Clients that fail
// a write are dropped.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := c.Write(b); err != nil {
			h.logger.Debug("dropping tcp client", "remote", c.RemoteAddr().String(), "error", err)
			_ = c.Close()
			delete(h.clients, c)
		}
	}

	for ws := range h.wsClients {
		_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			h.logger.Debug("dropping ws client", "remote", ws.RemoteAddr().String(), "error", err)
			_ = ws.Close()
			delete(h.wsClients, ws)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.clients),
		WSClients:  len(h.wsClients),
	}
}

type welcome struct {
	Type      string `json:"type"`
	Transport string `json:"transport"`
	Clients   int    `json:"clients"`
}

func (h *Hub) welcome(transport string) []byte {
	stats := h.Stats()
	b, _ := json.Marshal(welcome{
		Type:      "welcome",
		Transport: transport,
		Clients:   stats.TCPClients + stats.WSClients,
	})
	return append(b, '\n')
}
