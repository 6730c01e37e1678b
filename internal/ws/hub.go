// Package ws is the transport boundary: it owns WebSocket connections and
// relays decoded intents into internal/world, and relays internal/world's
// per-player visibility diffs back out. It never touches world state
// directly. Structurally this is the teacher's internal/ws package with its
// multi-room (gameRooms) concept collapsed — this server's world is
// singular, so every client is a member of the one room, keyed by account
// id instead of by an anonymous client pointer.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/lucas/tileworld/internal/worldlog"
)

var log = worldlog.New("ws")

// Client is one authenticated player's live connection.
type Client struct {
	AccountID int
	ConnID    string
	Conn      *websocket.Conn
	Send      chan []byte
	hub       *Hub
}

// Hub owns every connected client and serializes register/unregister/send
// through a single goroutine loop, the same channel-select shape as the
// teacher's Hub.Run.
type Hub struct {
	mu      sync.RWMutex
	clients map[int]*Client // account id -> client, post-authentication only

	register   chan *Client
	unregister chan *Client
	send       chan sendMsg
}

type sendMsg struct {
	AccountID int
	Payload   any
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		send:       make(chan sendMsg, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case m := <-h.send:
			h.deliver(m)
		}
	}
}

func (h *Hub) registerClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[c.AccountID]; ok {
		close(old.Send)
	}
	h.clients[c.AccountID] = c
	log.Debugf("client registered: account %d", c.AccountID)
}

func (h *Hub) unregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.AccountID]; ok && cur == c {
		delete(h.clients, c.AccountID)
		close(c.Send)
		log.Debugf("client unregistered: account %d", c.AccountID)
	}
}

func (h *Hub) deliver(m sendMsg) {
	h.mu.RLock()
	c, ok := h.clients[m.AccountID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	data, err := json.Marshal(m.Payload)
	if err != nil {
		log.Warnf("failed to marshal payload for account %d: %v", m.AccountID, err)
		return
	}
	select {
	case c.Send <- data:
	default:
		h.unregister <- c
	}
}

// Register adds a new client to the hub, replacing any existing client for
// the same account (a reconnect).
func (h *Hub) Register(c *Client) { h.register <- c }

func (h *Hub) Unregister(c *Client) { h.unregister <- c }

// SendToPlayer implements internal/world.Broadcaster: the tick epilogue
// calls this once per player with a non-empty visibility diff.
func (h *Hub) SendToPlayer(accountID int, payload any) {
	h.send <- sendMsg{AccountID: accountID, Payload: payload}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
