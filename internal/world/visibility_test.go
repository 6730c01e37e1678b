package world

import (
	"testing"
	"time"
)

func TestComputeVisibleChunksIncludesCenter(t *testing.T) {
	keys := ComputeVisibleChunks(Position{0, 0}, 1)
	found := false
	for _, k := range keys {
		if k == (ChunkKey{0, 0}) {
			found = true
		}
	}
	if !found {
		t.Error("expected the player's own chunk included in its visibility square")
	}
}

func TestVisibilityEngineRecomputeDetectsNewAndRemoved(t *testing.T) {
	dir := t.TempDir()
	chunks := NewChunkStore(dir, true, 30*time.Second, 30*time.Second, testLog{})
	zones := NewZoneRegistry(30 * time.Second)
	engine := NewVisibilityEngine(1)

	me := NewPlayer(1, "me", Position{0, 0})
	other := NewPlayer(2, "other", Position{1, 1})
	players := map[int]*Player{1: me, 2: other}
	npcs := map[int]*Npc{}
	items := NewGroundItemStore()
	items.Spawn(10, 1, Position{0, 0}, 0, 0, 0)

	diff := engine.Recompute(me, chunks, zones, players, npcs, items, 0, time.Now())
	if len(diff.NewActors) != 1 || diff.NewActors[0] != (actorRef{ID: 2, Kind: ActorPlayer}) {
		t.Fatalf("expected other player as newly visible, got %v", diff.NewActors)
	}
	if len(diff.NewItems) != 1 {
		t.Fatalf("expected ground item newly visible, got %v", diff.NewItems)
	}

	// Other player moves far away; next recompute should report it removed.
	other.SetPosition(Position{1000, 1000})
	diff2 := engine.Recompute(me, chunks, zones, players, npcs, items, 0, time.Now())
	if len(diff2.RemovedActors) != 1 || diff2.RemovedActors[0] != (actorRef{ID: 2, Kind: ActorPlayer}) {
		t.Fatalf("expected other player removed from visibility, got %v", diff2.RemovedActors)
	}
}

func TestVisibilityEngineRespectsGroundItemReservation(t *testing.T) {
	dir := t.TempDir()
	chunks := NewChunkStore(dir, true, 30*time.Second, 30*time.Second, testLog{})
	zones := NewZoneRegistry(30 * time.Second)
	engine := NewVisibilityEngine(1)

	me := NewPlayer(1, "me", Position{0, 0})
	players := map[int]*Player{1: me}
	items := NewGroundItemStore()
	items.Spawn(10, 1, Position{0, 0}, 0, 99, 50) // reserved for account 99

	diff := engine.Recompute(me, chunks, zones, players, map[int]*Npc{}, items, 0, time.Now())
	if len(diff.NewItems) != 0 {
		t.Errorf("expected reserved item invisible to account 1, got %v", diff.NewItems)
	}
}

func TestVisibilityEngineTracksChunkViewership(t *testing.T) {
	dir := t.TempDir()
	writeChunkFile(t, dir, ChunkKey{0, 0}, nil)
	chunks := NewChunkStore(dir, true, 30*time.Second, 30*time.Second, testLog{})
	zones := NewZoneRegistry(30 * time.Second)
	engine := NewVisibilityEngine(0) // radius 0: only own chunk

	me := NewPlayer(1, "me", Position{0, 0})
	players := map[int]*Player{1: me}
	now := time.Now()

	engine.Recompute(me, chunks, zones, players, map[int]*Npc{}, NewGroundItemStore(), 0, now)
	c, ok := chunks.Get(ChunkKey{0, 0})
	if !ok {
		t.Fatal("expected chunk loaded once a player views it")
	}
	if _, viewing := c.PlayersViewingChunk[1]; !viewing {
		t.Error("expected player registered as viewing its own chunk")
	}

	me.SetPosition(Position{1000, 1000})
	engine.Recompute(me, chunks, zones, players, map[int]*Npc{}, NewGroundItemStore(), 0, now)
	if _, stillViewing := c.PlayersViewingChunk[1]; stillViewing {
		t.Error("expected player removed from the old chunk's viewer set after moving away")
	}
}
