package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lucas/tileworld/internal/config"
	"github.com/lucas/tileworld/internal/db"
	"github.com/lucas/tileworld/internal/protocol"
	"github.com/lucas/tileworld/internal/world"
	"github.com/lucas/tileworld/internal/worldlog"
	"github.com/lucas/tileworld/internal/ws"
)

var log = worldlog.New("api")

type Handler struct {
	wsHandler *ws.Handler
	cfg       *config.Config
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsHandler.ServeWS(w, r)
}

// DebugState returns a fixed status message pointing at /health; it reports
// no player or NPC counts. Gated behind cfg.Dev.Enabled by the router. It's
// a development aid, not a client-facing endpoint.
func (h *Handler) DebugState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "dev mode, see /health"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warnf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

var _ = writeError

// EngineState adapts *world.Engine and *db.Postgres into ws.StateProvider —
// the teacher's gameStateAdapter pattern, collapsed to the one-world model.
// EnsurePlayer returns an existing in-memory player on reconnect, otherwise
// loads the last persisted row, falling back to a fresh spawn when the
// account has never logged in.
type EngineState struct {
	Engine *world.Engine
	PG     *db.Postgres
	SpawnX int
	SpawnY int
}

func NewEngineState(engine *world.Engine, pg *db.Postgres, spawnX, spawnY int) *EngineState {
	return &EngineState{Engine: engine, PG: pg, SpawnX: spawnX, SpawnY: spawnY}
}

func (s *EngineState) EnsurePlayer(accountID int, username string) *world.Player {
	if p, ok := s.Engine.GetPlayer(accountID); ok {
		return p
	}

	spawn := world.Position{X: s.SpawnX, Y: s.SpawnY}
	if s.PG != nil && s.PG.IsConnected() {
		row, err := s.PG.LoadCharacter(context.Background(), accountID)
		if err == nil {
			p := world.NewPlayer(accountID, row.Username, world.Position{X: row.PosX, Y: row.PosY})
			copy(p.Inventory.Slots[:], row.Inventory[:])
			copy(p.Inventory.Quantities[:], row.Quantities[:])
			copy(p.Equipped[:], row.Equipped[:])
			return p
		}
		if !db.IsNoRows(err) {
			log.Warnf("failed to load character %d, spawning fresh: %v", accountID, err)
		}
	}

	return world.NewPlayer(accountID, username, spawn)
}

// InitialState assembles the full-state snapshot a freshly authenticated
// client needs before tick-by-tick diffs start arriving.
func (s *EngineState) InitialState(accountID int) (any, error) {
	p, ok := s.Engine.GetPlayer(accountID)
	if !ok {
		return nil, world.ErrPlayerNotFound
	}
	snap := p.Snapshot()

	return protocol.Envelope{
		Type: "state",
		Data: mustMarshal(protocol.StatePayload{
			Tick: s.Engine.CurrentTick,
			Self: protocol.CharacterView{
				ID:    snap.ID,
				Kind:  "player",
				X:     snap.Pos.X,
				Y:     snap.Pos.Y,
				HP:    snap.HP,
				MaxHP: snap.MaxHP,
				Alive: snap.Alive,
			},
		}),
	}, nil
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		log.Warnf("failed to marshal initial state: %v", err)
		return json.RawMessage("{}")
	}
	return data
}
