package world

import (
	"math/rand"
	"testing"
)

func TestDropTableRegistryAlwaysDrop(t *testing.T) {
	r := NewDropTableRegistry()
	r.Register(&DropTable{
		Name:         "guaranteed",
		NoDropWeight: 0,
		Entries:      []DropEntry{{Weight: 1, ItemID: 99, MinQty: 2, MaxQty: 2}},
	})

	results := r.Roll("guaranteed", rand.New(rand.NewSource(1)))
	if len(results) != 1 || results[0].ItemID != 99 || results[0].Quantity != 2 {
		t.Fatalf("expected one guaranteed drop of item 99 x2, got %v", results)
	}
}

func TestDropTableRegistryAlwaysNoDrop(t *testing.T) {
	r := NewDropTableRegistry()
	r.Register(&DropTable{
		Name:         "empty",
		NoDropWeight: 1,
		Entries:      []DropEntry{{Weight: 0, ItemID: 99, MinQty: 1, MaxQty: 1}},
	})

	results := r.Roll("empty", rand.New(rand.NewSource(1)))
	if len(results) != 0 {
		t.Fatalf("expected no drop, got %v", results)
	}
}

func TestDropTableRegistryUnknownTable(t *testing.T) {
	r := NewDropTableRegistry()
	if results := r.Roll("does-not-exist", rand.New(rand.NewSource(1))); results != nil {
		t.Fatalf("expected nil for unknown table, got %v", results)
	}
}

func TestDropTableRegistryTableRefRecursionTerminates(t *testing.T) {
	r := NewDropTableRegistry()
	r.Register(&DropTable{
		Name:         "self_ref",
		NoDropWeight: 0,
		Entries:      []DropEntry{{Weight: 1, TableRef: "self_ref"}},
	})

	// Must terminate rather than hang or stack-overflow.
	results := r.Roll("self_ref", rand.New(rand.NewSource(1)))
	if len(results) != 0 {
		t.Fatalf("expected a self-referencing table to resolve to no drops once the depth cap is hit, got %v", results)
	}
}

func TestDropTableRegistryTertiaryIsIndependentOfPrimary(t *testing.T) {
	r := NewDropTableRegistry()
	r.Register(&DropTable{
		Name:         "tertiary_only",
		NoDropWeight: 1,
		Tertiary:     []TertiaryRoll{{OneInN: 1, ItemID: 42, Qty: 1}}, // OneInN=1 always hits
	})

	results := r.Roll("tertiary_only", rand.New(rand.NewSource(1)))
	if len(results) != 1 || results[0].ItemID != 42 {
		t.Fatalf("expected tertiary roll to fire independently of the (always-losing) primary roll, got %v", results)
	}
}

func TestDefaultDropTableRegistryHasExpectedTables(t *testing.T) {
	r := DefaultDropTableRegistry()
	for _, name := range []string{"rat_drops", "goblin_drops", "skeleton_drops"} {
		if _, ok := r.Get(name); !ok {
			t.Errorf("expected default registry to contain table %q", name)
		}
	}
}
