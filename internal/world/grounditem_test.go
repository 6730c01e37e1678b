package world

import "testing"

func TestGroundItemVisibleToUnreserved(t *testing.T) {
	g := NewGroundItem(1, 10, 5, Position{0, 0}, 0, 0, 0)
	if !g.VisibleTo(1, 0) || !g.VisibleTo(2, 0) {
		t.Error("unreserved item should be visible to anyone")
	}
}

func TestGroundItemVisibleToReservedWindow(t *testing.T) {
	g := NewGroundItem(1, 10, 5, Position{0, 0}, 100, 42, 50)
	if !g.VisibleTo(42, 110) {
		t.Error("reserving player should see the item during the window")
	}
	if g.VisibleTo(7, 110) {
		t.Error("other players should not see a reserved item during the window")
	}
	if !g.VisibleTo(7, 150) {
		t.Error("item should become visible to everyone once the reservation lapses")
	}
}

func TestGroundItemAgeDespawnsAtThreshold(t *testing.T) {
	g := NewGroundItem(1, 10, 1, Position{0, 0}, 0, 0, 0)
	for i := 0; i < GroundItemDespawnTicks-1; i++ {
		if g.Age() {
			t.Fatalf("despawned early at tick %d", i)
		}
	}
	if !g.Age() {
		t.Fatal("expected despawn once threshold reached")
	}
}

func TestGroundItemStoreSpawnGetRemove(t *testing.T) {
	s := NewGroundItemStore()
	g1 := s.Spawn(10, 1, Position{0, 0}, 0, 0, 0)
	g2 := s.Spawn(11, 1, Position{1, 1}, 0, 0, 0)
	if g1.ID == g2.ID {
		t.Fatal("expected distinct ids")
	}

	if _, ok := s.Get(g1.ID); !ok {
		t.Fatal("expected to find spawned item")
	}
	s.Remove(g1.ID)
	if _, ok := s.Get(g1.ID); ok {
		t.Error("expected item gone after Remove")
	}
}

func TestGroundItemStoreInChunk(t *testing.T) {
	s := NewGroundItemStore()
	s.Spawn(10, 1, Position{0, 0}, 0, 0, 0)
	s.Spawn(11, 1, Position{100, 100}, 0, 0, 0)

	inOrigin := s.InChunk(WorldToChunk(0, 0))
	if len(inOrigin) != 1 {
		t.Fatalf("expected 1 item in origin chunk, got %d", len(inOrigin))
	}
}

func TestGroundItemStoreAgeAllExpiresAndRemoves(t *testing.T) {
	s := NewGroundItemStore()
	g := s.Spawn(10, 1, Position{0, 0}, 0, 0, 0)
	for i := 0; i < GroundItemDespawnTicks-1; i++ {
		s.AgeAll()
	}
	expired := s.AgeAll()
	if len(expired) != 1 || expired[0] != g.ID {
		t.Fatalf("expected item %d expired, got %v", g.ID, expired)
	}
	if _, ok := s.Get(g.ID); ok {
		t.Error("expected expired item removed from store")
	}
}
