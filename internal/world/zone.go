package world

import (
	"fmt"
	"sync"
	"time"
)

// ZoneDef is the static definition of a spawn zone, read from the chunk file
// that roots it. Its rectangle is in world coordinates and may
// span into neighboring chunks.
type ZoneDef struct {
	ID          int
	RootChunkX  int
	RootChunkY  int
	MinX, MinY  int
	MaxX, MaxY  int
	NpcTypeID   int
	MaxCount    int
	RespawnSecs int
}

// Key returns the zone's process-wide unique identity: its root chunk plus
// its local id, since zone ids are only unique within a chunk file.
func (d ZoneDef) Key() string {
	return fmt.Sprintf("%d_%d_%d", d.RootChunkX, d.RootChunkY, d.ID)
}

func (d ZoneDef) Contains(worldX, worldY int) bool {
	return worldX >= d.MinX && worldX <= d.MaxX && worldY >= d.MinY && worldY <= d.MaxY
}

// overlappingChunks returns every chunk key the zone rectangle touches.
func (d ZoneDef) overlappingChunks() []ChunkKey {
	minCk := WorldToChunk(d.MinX, d.MinY)
	maxCk := WorldToChunk(d.MaxX, d.MaxY)
	var keys []ChunkKey
	for x := minCk.X; x <= maxCk.X; x++ {
		for y := minCk.Y; y <= maxCk.Y; y++ {
			keys = append(keys, ChunkKey{X: x, Y: y})
		}
	}
	return keys
}

// ZoneState mirrors ChunkState: a zone is HOT while any player's visibility
// square overlaps a chunk the zone touches, WARM for a cooldown window after
// the last such player's square no longer overlaps it, then COLD (its NPCs
// are despawned and it is dropped from the registry).
type ZoneState int

const (
	ZoneHot ZoneState = iota
	ZoneWarm
)

// Zone is the runtime residency record for a ZoneDef.
type Zone struct {
	mu sync.Mutex

	Def ZoneDef

	State ZoneState
	// PlayersInside holds accounts whose visibility square currently
	// overlaps a chunk this zone touches, not accounts standing literally
	// inside the zone rectangle.
	PlayersInside map[int]struct{}
	WarmSince     time.Time

	NpcIDs         map[int]struct{}
	NextSpawnTick  int64
}

func newZone(def ZoneDef) *Zone {
	return &Zone{
		Def:           def,
		State:         ZoneWarm,
		PlayersInside: make(map[int]struct{}),
		NpcIDs:        make(map[int]struct{}),
	}
}

func (z *Zone) enter(accountID int) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.PlayersInside[accountID] = struct{}{}
	z.State = ZoneHot
	z.WarmSince = time.Time{}
}

func (z *Zone) leave(accountID int, now time.Time) {
	z.mu.Lock()
	defer z.mu.Unlock()
	delete(z.PlayersInside, accountID)
	if len(z.PlayersInside) == 0 && z.State == ZoneHot {
		z.State = ZoneWarm
		z.WarmSince = now
	}
}

func (z *Zone) isHot() bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.State == ZoneHot
}

func (z *Zone) npcCount() int {
	z.mu.Lock()
	defer z.mu.Unlock()
	return len(z.NpcIDs)
}

func (z *Zone) addNpc(id int) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.NpcIDs[id] = struct{}{}
}

func (z *Zone) removeNpc(id int) {
	z.mu.Lock()
	defer z.mu.Unlock()
	delete(z.NpcIDs, id)
}

func (z *Zone) npcSnapshot() []int {
	z.mu.Lock()
	defer z.mu.Unlock()
	ids := make([]int, 0, len(z.NpcIDs))
	for id := range z.NpcIDs {
		ids = append(ids, id)
	}
	return ids
}

// ZoneRegistry owns the WARM->COLD sweep for every active zone, mirroring
// ChunkStore's residency discipline.
type ZoneRegistry struct {
	mu           sync.RWMutex
	zones        map[string]*Zone
	warmToCold   time.Duration
}

func NewZoneRegistry(warmToCold time.Duration) *ZoneRegistry {
	return &ZoneRegistry{zones: make(map[string]*Zone), warmToCold: warmToCold}
}

// Activate ensures a zone is resident for the given definition and marks it
// HOT with the entering player. Called when a player's visibility square
// comes to overlap a chunk the zone touches.
func (r *ZoneRegistry) Activate(def ZoneDef, accountID int) *Zone {
	r.mu.Lock()
	z, ok := r.zones[def.Key()]
	if !ok {
		z = newZone(def)
		r.zones[def.Key()] = z
	}
	r.mu.Unlock()
	z.enter(accountID)
	return z
}

func (r *ZoneRegistry) Get(key string) (*Zone, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	z, ok := r.zones[key]
	return z, ok
}

func (r *ZoneRegistry) Leave(key string, accountID int, now time.Time) {
	r.mu.RLock()
	z, ok := r.zones[key]
	r.mu.RUnlock()
	if ok {
		z.leave(accountID, now)
	}
}

// Sweep evicts zones that have sat WARM past warmToCold: it drops them from
// the registry and returns them so the caller can despawn their NPCs.
func (r *ZoneRegistry) Sweep(now time.Time) []*Zone {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cold []*Zone
	for key, z := range r.zones {
		z.mu.Lock()
		expired := z.State == ZoneWarm && !z.WarmSince.IsZero() && now.Sub(z.WarmSince) >= r.warmToCold
		z.mu.Unlock()
		if expired {
			cold = append(cold, z)
			delete(r.zones, key)
		}
	}
	return cold
}

// All returns every resident zone, for the tick's per-zone AI pass.
func (r *ZoneRegistry) All() []*Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()
	zones := make([]*Zone, 0, len(r.zones))
	for _, z := range r.zones {
		zones = append(zones, z)
	}
	return zones
}
