package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lucas/tileworld/internal/auth"
	"github.com/lucas/tileworld/internal/protocol"
	"github.com/lucas/tileworld/internal/session"
	"github.com/lucas/tileworld/internal/world"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the configured frontend origin before production use.
		return true
	},
}

// StateProvider supplies the initial full-state snapshot a freshly
// authenticated client needs before tick-by-tick diffs start arriving.
type StateProvider interface {
	InitialState(accountID int) (any, error)
	EnsurePlayer(accountID int, username string) *world.Player
}

// Handler upgrades HTTP connections to WebSocket and runs the
// authentication handshake before handing a client off to the Hub.
type Handler struct {
	hub      *Hub
	sessions *session.Registry
	verifier auth.Verifier
	state    StateProvider
	engine   *world.Engine
	dispatch *protocol.Registry
}

func NewHandler(hub *Hub, sessions *session.Registry, verifier auth.Verifier, state StateProvider, engine *world.Engine) *Handler {
	return &Handler{
		hub:      hub,
		sessions: sessions,
		verifier: verifier,
		state:    state,
		engine:   engine,
		dispatch: protocol.NewRegistry(),
	}
}

// ServeWS upgrades the connection and blocks in AUTHENTICATING until the
// client sends an "auth" envelope or the deadline trips.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade failed: %v", err)
		return
	}

	connID := uuid.New().String()
	now := time.Now()
	h.sessions.BeginAuth(connID, now)

	conn.SetReadDeadline(now.Add(5 * time.Second))
	var env protocol.Envelope
	if err := conn.ReadJSON(&env); err != nil || env.Type != "auth" {
		conn.Close()
		return
	}
	var authPayload protocol.AuthPayload
	if err := json.Unmarshal(env.Data, &authPayload); err != nil {
		conn.Close()
		return
	}

	accountID, err := h.verifier.Verify(authPayload.Token)
	if err != nil {
		writeAuthResult(conn, false, "invalid token")
		conn.Close()
		return
	}

	if _, err := h.sessions.Authenticate(connID, int(accountID), time.Now()); err != nil {
		writeAuthResult(conn, false, err.Error())
		conn.Close()
		return
	}

	p := h.state.EnsurePlayer(int(accountID), "")
	h.engine.AddPlayer(p)

	client := &Client{AccountID: int(accountID), ConnID: connID, Conn: conn, Send: make(chan []byte, 256), hub: h.hub}
	h.hub.Register(client)

	writeAuthResult(conn, true, "")
	if state, err := h.state.InitialState(int(accountID)); err == nil {
		if data, err := json.Marshal(state); err == nil {
			client.Send <- data
		}
	}

	go client.writePump()
	go client.readPump(h)
}

func writeAuthResult(conn *websocket.Conn, ok bool, reason string) {
	env := protocol.Envelope{Type: "authResult"}
	payload, _ := json.Marshal(protocol.AuthResultPayload{OK: ok, Reason: reason})
	env.Data = payload
	data, _ := json.Marshal(env)
	conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readPump(h *Handler) {
	defer func() {
		h.hub.Unregister(c)
		h.sessions.SoftDisconnect(c.ConnID, time.Now())
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debugf("websocket read error for account %d: %v", c.AccountID, err)
			}
			break
		}
		h.sessions.Touch(c.ConnID, time.Now())
		c.handleMessage(h, message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(h *Handler, message []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		log.Debugf("failed to parse client message from account %d: %v", c.AccountID, err)
		return
	}

	intent, ok, err := h.dispatch.Dispatch(c.AccountID, env)
	if err != nil {
		log.Debugf("dispatch error from account %d: %v", c.AccountID, err)
		return
	}
	if !ok {
		return
	}
	if intent.Kind == "ping" {
		response, _ := json.Marshal(protocol.Envelope{Type: "pong"})
		c.Send <- response
		return
	}
	h.engine.EnqueueIntent(intent)
}
