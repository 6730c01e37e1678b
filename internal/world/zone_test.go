package world

import (
	"testing"
	"time"
)

func TestZoneDefContainsAndKey(t *testing.T) {
	def := ZoneDef{ID: 3, RootChunkX: 1, RootChunkY: 2, MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	if !def.Contains(5, 5) {
		t.Error("expected (5,5) inside rectangle")
	}
	if def.Contains(11, 0) {
		t.Error("expected (11,0) outside rectangle")
	}
	if got, want := def.Key(), "1_2_3"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestZoneDefOverlappingChunks(t *testing.T) {
	def := ZoneDef{MinX: 0, MinY: 0, MaxX: 20, MaxY: 0}
	keys := def.overlappingChunks()
	if len(keys) < 2 {
		t.Fatalf("expected zone spanning x=0..20 to touch multiple chunks, got %v", keys)
	}
}

func TestZoneRegistryActivateEnterLeave(t *testing.T) {
	reg := NewZoneRegistry(30 * time.Second)
	def := ZoneDef{ID: 1, MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}

	z := reg.Activate(def, 100)
	if !z.isHot() {
		t.Fatal("expected zone hot once a player enters")
	}

	now := time.Now()
	reg.Leave(def.Key(), 100, now)
	if z.isHot() {
		t.Error("expected zone to go warm once last player leaves")
	}
}

func TestZoneRegistrySweepEvictsExpiredWarm(t *testing.T) {
	reg := NewZoneRegistry(10 * time.Millisecond)
	def := ZoneDef{ID: 1, MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}

	base := time.Now()
	z := reg.Activate(def, 1)
	z.leave(1, base)

	if cold := reg.Sweep(base); len(cold) != 0 {
		t.Error("expected no sweep immediately after going warm")
	}

	later := base.Add(time.Second)
	cold := reg.Sweep(later)
	if len(cold) != 1 {
		t.Fatalf("expected 1 zone evicted, got %d", len(cold))
	}
	if _, ok := reg.Get(def.Key()); ok {
		t.Error("expected zone removed from registry after sweep")
	}
}

func TestZoneNpcBookkeeping(t *testing.T) {
	z := newZone(ZoneDef{ID: 1})
	z.addNpc(5)
	z.addNpc(6)
	if z.npcCount() != 2 {
		t.Fatalf("npcCount = %d, want 2", z.npcCount())
	}
	z.removeNpc(5)
	if z.npcCount() != 1 {
		t.Fatalf("npcCount after removal = %d, want 1", z.npcCount())
	}
	ids := z.npcSnapshot()
	if len(ids) != 1 || ids[0] != 6 {
		t.Errorf("npcSnapshot = %v, want [6]", ids)
	}
}

func TestZoneRegistryAllReturnsResidentZones(t *testing.T) {
	reg := NewZoneRegistry(30 * time.Second)
	reg.Activate(ZoneDef{ID: 1}, 1)
	reg.Activate(ZoneDef{ID: 2}, 2)

	if got := len(reg.All()); got != 2 {
		t.Errorf("All() returned %d zones, want 2", got)
	}
}
