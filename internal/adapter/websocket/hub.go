// Package websocket pushes wheel updates to connected dashboard pages. The
// hub is a single goroutine owning all client state; every operation goes
// through its command channel, so no locks are needed.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/champsing/mercuryland/internal/metrics"
)

const maxClientsPerWheel = 50

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	wheelID uuid.UUID
	conn    *websocket.Conn
	errCh   chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	wheelID uuid.UUID
	conn    *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdBroadcast struct {
	wheelID uuid.UUID
	data    []byte
}

func (cmdBroadcast) hubCmd() {}

type cmdClientCount struct {
	wheelID uuid.UUID
	replyCh chan int
}

func (cmdClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// --- Per-connection writer ---

type clientWriter struct {
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
}

func newClientWriter(conn *websocket.Conn) *clientWriter {
	cw := &clientWriter{
		conn:   conn,
		sendCh: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			cw.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	close(cw.done)
	cw.conn.Close()
}

// --- Hub ---

// Hub fans wheel updates out to the dashboard pages watching each wheel.
type Hub struct {
	cmdCh   chan hubCmd
	clients map[uuid.UUID]map[*websocket.Conn]*clientWriter
}

func NewHub() *Hub {
	hub := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clients: make(map[uuid.UUID]map[*websocket.Conn]*clientWriter),
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
		case cmdUnregister:
			h.handleUnregister(c.wheelID, c.conn)
		case cmdBroadcast:
			h.handleBroadcast(c)
		case cmdClientCount:
			c.replyCh <- len(h.clients[c.wheelID])
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	clients, exists := h.clients[c.wheelID]
	if !exists {
		clients = make(map[*websocket.Conn]*clientWriter)
		h.clients[c.wheelID] = clients
	}

	if len(clients) >= maxClientsPerWheel {
		slog.Warn("Rejecting wheel client, max reached", "wheel", c.wheelID, "max", maxClientsPerWheel)
		c.conn.Close()
		c.errCh <- fmt.Errorf("max clients per wheel (%d) reached", maxClientsPerWheel)
		return
	}

	clients[c.conn] = newClientWriter(c.conn)
	metrics.WheelClientsConnected.Inc()
	slog.Debug("Wheel client registered", "wheel", c.wheelID, "clients", len(clients))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(wheelID uuid.UUID, conn *websocket.Conn) {
	clients, exists := h.clients[wheelID]
	if !exists {
		return
	}

	cw, exists := clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(clients, conn)
	metrics.WheelClientsConnected.Dec()

	if len(clients) == 0 {
		delete(h.clients, wheelID)
	}
}

func (h *Hub) handleBroadcast(c cmdBroadcast) {
	clients, exists := h.clients[c.wheelID]
	if !exists {
		return
	}

	var slow []*websocket.Conn
	for conn, cw := range clients {
		select {
		case cw.sendCh <- c.data:
		default:
			slow = append(slow, conn)
		}
	}

	// A client that cannot keep up with wheel updates is not worth keeping.
	for _, conn := range slow {
		slog.Warn("Disconnecting slow wheel client", "wheel", c.wheelID)
		h.handleUnregister(c.wheelID, conn)
	}
}

func (h *Hub) handleStop() {
	for wheelID, clients := range h.clients {
		for _, cw := range clients {
			cw.stop()
			metrics.WheelClientsConnected.Dec()
		}
		delete(h.clients, wheelID)
	}
}

// --- Public API ---

func (h *Hub) Register(wheelID uuid.UUID, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{wheelID: wheelID, conn: conn, errCh: errCh}
	return <-errCh
}

func (h *Hub) Unregister(wheelID uuid.UUID, conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{wheelID: wheelID, conn: conn}
}

// BroadcastWheel pushes a spin outcome to every page watching the wheel. It
// implements domain.WheelBroadcaster.
func (h *Hub) BroadcastWheel(wheelID uuid.UUID, outcome string) {
	data, err := json.Marshal(map[string]string{"id": wheelID.String(), "outcome": outcome})
	if err != nil {
		slog.Error("Failed to marshal wheel broadcast", "error", err)
		return
	}
	h.cmdCh <- cmdBroadcast{wheelID: wheelID, data: data}
}

func (h *Hub) ClientCount(wheelID uuid.UUID) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdClientCount{wheelID: wheelID, replyCh: replyCh}
	return <-replyCh
}

func (h *Hub) Stop() {
	h.cmdCh <- cmdStop{}
}
