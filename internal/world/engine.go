package world

import (
	"math/rand"
	"sync"
	"time"

	"github.com/lucas/tileworld/internal/pathfind"
)

// EngineConfig is the subset of world-tuning values the engine needs, mirroring
// internal/config.WorldConfig without importing it (avoids an import cycle;
// cmd/server/main.go does the translation at wiring time).
type EngineConfig struct {
	TickDuration         time.Duration
	VisionRadiusChunks   int
	SpawnX, SpawnY       int
	StrictTerrain        bool
	ZoneWarmToColdSecs   int
	ChunkCleanupSecs     int
	CooldownSweepSecs    int
	PlayerAttackCooldown int64
	PlayerRespawnTicks   int64
	RegenTicks           int // ticks between hitpoint regen steps while undamaged
}

// Engine owns every piece of authoritative world state and is the sole
// mutator of it from the tick goroutine. Ingress handlers only ever enqueue
// Intents onto pending; they never touch Players/Npcs/Chunks
// directly.
type Engine struct {
	cfg EngineConfig
	log interface {
		Debugf(format string, args ...any)
		Warnf(format string, args ...any)
	}

	Chunks *ChunkStore
	Zones  *ZoneRegistry
	Items  *ItemRegistry
	Drops  *DropTableRegistry
	NpcTypes *NpcTypeRegistry
	GroundItems *GroundItemStore
	Visibility *VisibilityEngine

	playersMu sync.RWMutex
	Players   map[int]*Player // account id -> player

	npcsMu  sync.RWMutex
	Npcs    map[int]*Npc
	nextNpcID int

	CombatFormula CombatFormula
	combatRand    *rand.Rand
	aiRand        *rand.Rand

	CurrentTick int64

	intentsMu sync.Mutex
	pending   []Intent

	broadcaster Broadcaster
}

// Broadcaster is the transport-side sink the tick epilogue phase pushes
// visibility diffs and events to. internal/ws implements this.
type Broadcaster interface {
	SendToPlayer(accountID int, payload any)
}

func NewEngine(cfg EngineConfig, chunks *ChunkStore, items *ItemRegistry, drops *DropTableRegistry, npcTypes *NpcTypeRegistry, log interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}, broadcaster Broadcaster) *Engine {
	return &Engine{
		cfg:           cfg,
		log:           log,
		Chunks:        chunks,
		Zones:         NewZoneRegistry(time.Duration(cfg.ZoneWarmToColdSecs) * time.Second),
		Items:         items,
		Drops:         drops,
		NpcTypes:      npcTypes,
		GroundItems:   NewGroundItemStore(),
		Visibility:    NewVisibilityEngine(cfg.VisionRadiusChunks),
		Players:       make(map[int]*Player),
		Npcs:          make(map[int]*Npc),
		nextNpcID:     1,
		CombatFormula: UniformDamage,
		combatRand:    rand.New(rand.NewSource(1)),
		aiRand:        rand.New(rand.NewSource(2)),
		broadcaster:   broadcaster,
	}
}

// chunkWalkability adapts the engine's chunk store to pathfind.WalkabilityProvider.
type chunkWalkability struct {
	e   *Engine
	now time.Time
}

func (w chunkWalkability) IsWalkable(p pathfind.Point) bool {
	return w.e.Chunks.ValidateMovement(p.X, p.Y, w.now)
}

func (e *Engine) grid(now time.Time) chunkWalkability {
	return chunkWalkability{e: e, now: now}
}

// AddPlayer registers a newly-authenticated player into the world at the
// position it already carries (the caller chooses spawn or persisted
// position), applies the configured player attack cooldown, and records it
// on the chunk it occupies.
func (e *Engine) AddPlayer(p *Player) {
	if e.cfg.PlayerAttackCooldown > 0 {
		p.CharacterState.mu.Lock()
		p.AttackCooldown = e.cfg.PlayerAttackCooldown
		p.CharacterState.mu.Unlock()
	}
	e.playersMu.Lock()
	e.Players[p.AccountID] = p
	e.playersMu.Unlock()
	if c := e.Chunks.EnsureLoaded(p.ViewChunk, time.Now()); c != nil {
		c.addPlayerOnChunk(p.AccountID)
	}
}

func (e *Engine) RemovePlayer(accountID int) {
	e.playersMu.Lock()
	defer e.playersMu.Unlock()
	delete(e.Players, accountID)
}

func (e *Engine) GetPlayer(accountID int) (*Player, bool) {
	e.playersMu.RLock()
	defer e.playersMu.RUnlock()
	p, ok := e.Players[accountID]
	return p, ok
}

func (e *Engine) playersSnapshotMap() map[int]*Player {
	e.playersMu.RLock()
	defer e.playersMu.RUnlock()
	out := make(map[int]*Player, len(e.Players))
	for k, v := range e.Players {
		out[k] = v
	}
	return out
}

func (e *Engine) SpawnNpc(typeID int, zoneKey string, pos Position) *Npc {
	def, ok := e.NpcTypes.Get(typeID)
	if !ok {
		return nil
	}
	e.npcsMu.Lock()
	id := e.nextNpcID
	e.nextNpcID++
	n := NewNpc(id, def, zoneKey, pos)
	e.Npcs[id] = n
	e.npcsMu.Unlock()
	if c := e.Chunks.EnsureLoaded(n.CurrentChunk, time.Now()); c != nil {
		c.addNpcOnChunk(id)
	}
	return n
}

func (e *Engine) RemoveNpc(id int) {
	e.npcsMu.Lock()
	n, ok := e.Npcs[id]
	delete(e.Npcs, id)
	e.npcsMu.Unlock()
	if ok {
		if c, found := e.Chunks.Get(n.CurrentChunk); found {
			c.removeNpcOnChunk(id)
		}
	}
}

func (e *Engine) GetNpc(id int) (*Npc, bool) {
	e.npcsMu.RLock()
	defer e.npcsMu.RUnlock()
	n, ok := e.Npcs[id]
	return n, ok
}

func (e *Engine) npcsSnapshotMap() map[int]*Npc {
	e.npcsMu.RLock()
	defer e.npcsMu.RUnlock()
	out := make(map[int]*Npc, len(e.Npcs))
	for k, v := range e.Npcs {
		out[k] = v
	}
	return out
}

// updatePlayerChunk implements update_player_chunk: it moves a player's
// chunk-residency bookkeeping to match its current world position, returning
// the chunk it now occupies, the one it occupied before, and whether the two
// differ. It is keyed on the chunk the player physically occupies, not the
// visibility square (VisibilityEngine.Recompute handles the broader square).
func (e *Engine) updatePlayerChunk(p *Player, now time.Time) (newChunk, oldChunk ChunkKey, changed bool) {
	pos := p.Position()
	newKey := WorldToChunk(pos.X, pos.Y)

	p.mu.Lock()
	oldKey := p.ViewChunk
	if oldKey == newKey {
		p.mu.Unlock()
		return newKey, oldKey, false
	}
	p.ViewChunk = newKey
	p.mu.Unlock()

	if oc, ok := e.Chunks.Get(oldKey); ok {
		oc.removePlayerOnChunk(p.AccountID)
	}
	if nc := e.Chunks.EnsureLoaded(newKey, now); nc != nil {
		nc.addPlayerOnChunk(p.AccountID)
	}
	return newKey, oldKey, true
}

// updateNpcChunk is updatePlayerChunk's npc counterpart, called after AI
// movement so NpcIDsOnChunk tracks roaming/pursuing npcs across chunk
// boundaries.
func (e *Engine) updateNpcChunk(n *Npc, now time.Time) {
	pos := n.Position()
	newKey := WorldToChunk(pos.X, pos.Y)

	n.mu.Lock()
	oldKey := n.CurrentChunk
	if oldKey == newKey {
		n.mu.Unlock()
		return
	}
	n.CurrentChunk = newKey
	n.mu.Unlock()

	if oc, ok := e.Chunks.Get(oldKey); ok {
		oc.removeNpcOnChunk(n.ID)
	}
	if nc := e.Chunks.EnsureLoaded(newKey, now); nc != nil {
		nc.addNpcOnChunk(n.ID)
	}
}

// EnqueueIntent deposits a client intent into the pending queue for
// processing on the next tick. Safe to call concurrently from any number of
// ingress goroutines.
func (e *Engine) EnqueueIntent(i Intent) {
	e.intentsMu.Lock()
	defer e.intentsMu.Unlock()
	e.pending = append(e.pending, i)
}

func (e *Engine) drainIntents() []Intent {
	e.intentsMu.Lock()
	defer e.intentsMu.Unlock()
	drained := e.pending
	e.pending = nil
	return drained
}
