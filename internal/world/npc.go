package world

import "sync"

// NpcTypeDef is the static, shared definition for all NPCs spawned from one
// zone entry.
type NpcTypeDef struct {
	ID              int
	Name            string
	Attack          int
	Strength        int
	Defense         int
	Hitpoints       int
	AggroRange      int // Euclidean distance
	AttackCooldown  int64
	DropTableRef    string
	Aggressive      bool // initiates combat on sight, vs. only retaliating
}

// Npc is a server-controlled actor spawned into a Zone.
type Npc struct {
	CharacterState

	mu sync.RWMutex

	TypeID   int
	ZoneKey  string
	SpawnPos Position

	AIState NpcAIState

	// CurrentChunk is the chunk the npc currently occupies, tracked by
	// Engine.updateNpcChunk so NpcIDsOnChunk bookkeeping follows it as it
	// roams/pursues across chunk boundaries.
	CurrentChunk ChunkKey
}

// NpcAIState is the actor AI's finite-state-machine position.
type NpcAIState int

const (
	AIIdle NpcAIState = iota
	AIPursuing
	AIAttacking
)

func NewNpc(id int, def NpcTypeDef, zoneKey string, spawn Position) *Npc {
	n := &Npc{
		CharacterState: newCharacterState(id, ActorNpc, spawn, def.Attack, def.Strength, def.Defense, def.Hitpoints),
		TypeID:         def.ID,
		ZoneKey:        zoneKey,
		SpawnPos:       spawn,
		AIState:        AIIdle,
	}
	n.CharacterState.AttackCooldown = def.AttackCooldown
	n.CurrentChunk = WorldToChunk(spawn.X, spawn.Y)
	return n
}

func (n *Npc) SetAIState(s NpcAIState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.AIState = s
}

func (n *Npc) GetAIState() NpcAIState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.AIState
}

// NpcSnapshot is the egress shape for a visible NPC.
type NpcSnapshot struct {
	CharacterSnapshot
	TypeID int
}

func (n *Npc) Snapshot() NpcSnapshot {
	return NpcSnapshot{CharacterSnapshot: n.CharacterState.Snapshot(), TypeID: n.TypeID}
}

// NpcTypeRegistry holds the static NPC type table, loaded at startup like
// the teacher's ItemRegistry.
type NpcTypeRegistry struct {
	mu    sync.RWMutex
	types map[int]NpcTypeDef
}

func NewNpcTypeRegistry() *NpcTypeRegistry {
	return &NpcTypeRegistry{types: make(map[int]NpcTypeDef)}
}

func (r *NpcTypeRegistry) Register(def NpcTypeDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[def.ID] = def
}

func (r *NpcTypeRegistry) Get(id int) (NpcTypeDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.types[id]
	return d, ok
}

func DefaultNpcTypeRegistry() *NpcTypeRegistry {
	r := NewNpcTypeRegistry()
	r.Register(NpcTypeDef{ID: 1, Name: "rat", Attack: 1, Strength: 1, Defense: 1, Hitpoints: 3, AggroRange: 3, AttackCooldown: 4, DropTableRef: "rat_drops", Aggressive: false})
	r.Register(NpcTypeDef{ID: 2, Name: "goblin", Attack: 3, Strength: 3, Defense: 2, Hitpoints: 8, AggroRange: 5, AttackCooldown: 4, DropTableRef: "goblin_drops", Aggressive: true})
	r.Register(NpcTypeDef{ID: 3, Name: "skeleton", Attack: 5, Strength: 5, Defense: 4, Hitpoints: 15, AggroRange: 6, AttackCooldown: 3, DropTableRef: "skeleton_drops", Aggressive: true})
	return r
}
