package world

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	ChunkSize = 16 // tiles per chunk edge
)

// ChunkKey identifies a chunk by its chunk-grid coordinate.
type ChunkKey struct {
	X, Y int
}

func (k ChunkKey) String() string { return fmt.Sprintf("%d_%d", k.X, k.Y) }

// WorldToChunk converts a world tile coordinate to its owning chunk
// coordinate: chunk = floor((world + 8) / 16).
func WorldToChunk(worldX, worldY int) ChunkKey {
	return ChunkKey{X: floorDiv(worldX+8, ChunkSize), Y: floorDiv(worldY+8, ChunkSize)}
}

// WorldToLocal converts a world tile coordinate to its chunk-local
// coordinate, normalized into [0, 16).
func WorldToLocal(worldX, worldY int) (int, int) {
	lx := mod(worldX+8, ChunkSize)
	ly := mod(worldY+8, ChunkSize)
	return lx, ly
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// ChunkState is the chunk residency lifecycle state. COLD is represented by
// absence from the chunk map.
type ChunkState int

const (
	ChunkHot ChunkState = iota
	ChunkWarm
)

func (s ChunkState) String() string {
	if s == ChunkHot {
		return "HOT"
	}
	return "WARM"
}

// chunkFile is the on-disk schema for chunk_<X>_<Y>.json.
type chunkFile struct {
	Heights     []float64     `json:"heights"`
	Walkability []bool        `json:"walkability"`
	Zones       []zoneDefFile `json:"zones,omitempty"`
}

type zoneDefFile struct {
	ID       int    `json:"id"`
	MinX     int    `json:"minX"`
	MinY     int    `json:"minY"`
	MaxX     int    `json:"maxX"`
	MaxY     int    `json:"maxY"`
	NpcType  int    `json:"npcType"`
	MaxCount int    `json:"maxCount"`
}

// Chunk is a loaded terrain unit plus its runtime residency bookkeeping.
type Chunk struct {
	mu sync.RWMutex

	Key         ChunkKey
	Heights     []float64
	Walkability []bool // row-major, index = localY*16 + localX

	State        ChunkState
	LastAccessed time.Time
	CooldownFrom time.Time // zero unless State == ChunkWarm

	PlayersOnChunk      map[int]struct{} // account ids physically standing in this chunk
	PlayersViewingChunk map[int]struct{} // account ids whose visibility square contains this chunk

	ZoneDefs        []ZoneDef // zone definitions read from this chunk's file (this chunk is their root)
	ActiveZoneKeys  map[string]struct{}
	ForeignZoneRefs map[string]struct{} // zones rooted elsewhere but overlapping this chunk
	NpcIDsOnChunk   map[int]struct{}
}

func (c *Chunk) addPlayerOnChunk(accountID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PlayersOnChunk[accountID] = struct{}{}
}

func (c *Chunk) removePlayerOnChunk(accountID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.PlayersOnChunk, accountID)
}

func (c *Chunk) addNpcOnChunk(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.NpcIDsOnChunk[id] = struct{}{}
}

func (c *Chunk) removeNpcOnChunk(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.NpcIDsOnChunk, id)
}

// setZoneActive records that a zone is HOT/WARM against this chunk: rooted
// for a zone whose file defined it here, foreign for a zone rooted elsewhere
// whose rectangle merely overlaps this chunk. Either keeps the chunk HOT.
func (c *Chunk) setZoneActive(key string, rooted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rooted {
		c.ActiveZoneKeys[key] = struct{}{}
	} else {
		c.ForeignZoneRefs[key] = struct{}{}
	}
}

func (c *Chunk) clearZoneActive(key string, rooted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rooted {
		delete(c.ActiveZoneKeys, key)
	} else {
		delete(c.ForeignZoneRefs, key)
	}
}

func newChunk(key ChunkKey, f *chunkFile, now time.Time) *Chunk {
	c := &Chunk{
		Key:                 key,
		Heights:             f.Heights,
		Walkability:         f.Walkability,
		State:               ChunkHot,
		LastAccessed:        now,
		PlayersOnChunk:      make(map[int]struct{}),
		PlayersViewingChunk: make(map[int]struct{}),
		ActiveZoneKeys:      make(map[string]struct{}),
		ForeignZoneRefs:     make(map[string]struct{}),
		NpcIDsOnChunk:       make(map[int]struct{}),
	}
	for _, zd := range f.Zones {
		c.ZoneDefs = append(c.ZoneDefs, ZoneDef{
			ID:            zd.ID,
			RootChunkX:    key.X,
			RootChunkY:    key.Y,
			MinX:          zd.MinX,
			MinY:          zd.MinY,
			MaxX:          zd.MaxX,
			MaxY:          zd.MaxY,
			NpcTypeID:     zd.NpcType,
			MaxCount:      zd.MaxCount,
			RespawnSecs:   20,
		})
	}
	return c
}

// Walkable indexes the row-major walkability grid. Out-of-bounds local
// coordinates return false. A nil/empty grid (chunk has no walkability data)
// returns the configured permissive default rather than false.
func (c *Chunk) Walkable(localX, localY int, permissiveDefault bool) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if localX < 0 || localX >= ChunkSize || localY < 0 || localY >= ChunkSize {
		return false
	}
	if len(c.Walkability) != ChunkSize*ChunkSize {
		return permissiveDefault
	}
	return c.Walkability[localY*ChunkSize+localX]
}

func (c *Chunk) touch(now time.Time) {
	c.mu.Lock()
	c.LastAccessed = now
	c.mu.Unlock()
}

func (c *Chunk) hasActiveZone() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ActiveZoneKeys) > 0 || len(c.ForeignZoneRefs) > 0
}

func (c *Chunk) isHotCondition() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.PlayersViewingChunk) > 0 || len(c.ActiveZoneKeys) > 0 || len(c.ForeignZoneRefs) > 0
}

// ChunkStore owns lazy, reference-counted terrain residency.
type ChunkStore struct {
	mu                sync.RWMutex
	chunks            map[ChunkKey]*Chunk
	terrainDir        string
	permissiveDefault bool
	warmToCold        time.Duration
	cleanupInterval   time.Duration
	log               logger

	// zonesByChunk indexes every zone definition seen so far by each chunk
	// key its rectangle overlaps, including chunks it merely touches but
	// does not root. Populated as chunk files are loaded, so it only knows
	// about zones whose root chunk has been loaded at least once.
	zonesByChunk map[ChunkKey][]ZoneDef
}

type logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

func NewChunkStore(terrainDir string, permissiveDefault bool, warmToCold, cleanupInterval time.Duration, log logger) *ChunkStore {
	return &ChunkStore{
		chunks:            make(map[ChunkKey]*Chunk),
		terrainDir:        terrainDir,
		permissiveDefault: permissiveDefault,
		warmToCold:        warmToCold,
		cleanupInterval:   cleanupInterval,
		log:               log,
		zonesByChunk:      make(map[ChunkKey][]ZoneDef),
	}
}

func (s *ChunkStore) filePath(key ChunkKey) string {
	return filepath.Join(s.terrainDir, fmt.Sprintf("chunk_%d_%d.json", key.X, key.Y))
}

// EnsureLoaded synchronously reads the chunk file if the chunk is not already
// resident, inserting it as HOT. A missing file is logged and treated as "no
// chunk"; it is not an error returned to the caller — callers that need
// terrain (e.g. spawn) must fall back themselves.
func (s *ChunkStore) EnsureLoaded(key ChunkKey, now time.Time) *Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.chunks[key]; ok {
		c.touch(now)
		return c
	}

	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		s.log.Debugf("chunk %s file not found, treating as absent: %v", key, err)
		return nil
	}

	var f chunkFile
	if err := json.Unmarshal(data, &f); err != nil {
		s.log.Warnf("chunk %s file malformed: %v", key, err)
		return nil
	}

	c := newChunk(key, &f, now)
	s.chunks[key] = c
	for _, zd := range c.ZoneDefs {
		for _, ck := range zd.overlappingChunks() {
			s.zonesByChunk[ck] = append(s.zonesByChunk[ck], zd)
		}
	}
	return c
}

// ZonesOverlapping returns every zone definition, rooted or foreign, whose
// rectangle touches ck. Only zones whose root chunk file has been loaded at
// least once are known to the index.
func (s *ChunkStore) ZonesOverlapping(ck ChunkKey) []ZoneDef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ZoneDef(nil), s.zonesByChunk[ck]...)
}

// markZoneActive records a zone as HOT/WARM on every chunk its rectangle
// touches: rooted on the chunk that defines it, foreign on the others. Only
// already-resident foreign chunks are updated; a chunk that has not been
// loaded yet has no viewers and gains nothing from the marker until it is.
func (s *ChunkStore) markZoneActive(def ZoneDef, now time.Time) {
	rootKey := ChunkKey{X: def.RootChunkX, Y: def.RootChunkY}
	if c := s.EnsureLoaded(rootKey, now); c != nil {
		c.setZoneActive(def.Key(), true)
	}
	for _, ck := range def.overlappingChunks() {
		if ck == rootKey {
			continue
		}
		if c, ok := s.Get(ck); ok {
			c.setZoneActive(def.Key(), false)
		}
	}
}

// markZoneInactive is markZoneActive's inverse, called once a zone goes
// COLD and is dropped from the zone registry.
func (s *ChunkStore) markZoneInactive(def ZoneDef) {
	rootKey := ChunkKey{X: def.RootChunkX, Y: def.RootChunkY}
	if c, ok := s.Get(rootKey); ok {
		c.clearZoneActive(def.Key(), true)
	}
	for _, ck := range def.overlappingChunks() {
		if ck == rootKey {
			continue
		}
		if c, ok := s.Get(ck); ok {
			c.clearZoneActive(def.Key(), false)
		}
	}
}

// Get returns a chunk already resident, without loading it.
func (s *ChunkStore) Get(key ChunkKey) (*Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[key]
	return c, ok
}

// ValidateMovement reports whether a world tile is walkable, loading the
// owning chunk on demand.
func (s *ChunkStore) ValidateMovement(worldX, worldY int, now time.Time) bool {
	key := WorldToChunk(worldX, worldY)
	c := s.EnsureLoaded(key, now)
	if c == nil {
		return s.permissiveDefault
	}
	lx, ly := WorldToLocal(worldX, worldY)
	return c.Walkable(lx, ly, s.permissiveDefault)
}

// VisibilitySquare returns the (2R+1)x(2R+1) block of chunk keys centered on
// center.
func VisibilitySquare(center ChunkKey, radius int) []ChunkKey {
	keys := make([]ChunkKey, 0, (2*radius+1)*(2*radius+1))
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			keys = append(keys, ChunkKey{X: center.X + dx, Y: center.Y + dy})
		}
	}
	return keys
}

// Cleanup removes chunks with no viewers, no active zone, and whose last
// access predates the cleanup threshold. Must only be called after any COLD
// zone transitions affecting these chunks have already happened (chunk
// removal never orphans actors).
func (s *ChunkStore) Cleanup(now time.Time) []ChunkKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []ChunkKey
	for key, c := range s.chunks {
		c.mu.RLock()
		idle := len(c.PlayersViewingChunk) == 0 && len(c.ActiveZoneKeys) == 0 &&
			len(c.ForeignZoneRefs) == 0 && now.Sub(c.LastAccessed) > s.cleanupInterval
		c.mu.RUnlock()
		if idle {
			delete(s.chunks, key)
			removed = append(removed, key)
		}
	}
	return removed
}

// Snapshot returns every resident chunk key, for diagnostics/tests.
func (s *ChunkStore) Snapshot() []ChunkKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	return keys
}
