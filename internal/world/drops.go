package world

import "math/rand"

// maxDropTableDepth caps Table reference recursion — a
// misconfigured drop table that references itself must not hang the tick.
const maxDropTableDepth = 10

// DropEntry is one weighted line in a DropTable: either an item id+quantity
// range, or a reference to another table resolved recursively.
type DropEntry struct {
	Weight   int
	ItemID   int
	MinQty   int
	MaxQty   int
	TableRef string // if set, ItemID/MinQty/MaxQty are ignored and TableRef is rolled instead
}

// DropTable is a weighted primary roll (exactly one entry, or nothing if
// NoDropWeight makes "nothing" win) plus independent tertiary 1-in-N rolls
// that can add extra items regardless of the primary result.
type DropTable struct {
	Name         string
	NoDropWeight int
	Entries      []DropEntry
	Tertiary     []TertiaryRoll
}

// TertiaryRoll is an independent "1 in N" chance to add a fixed item,
// layered on top of the primary roll (e.g. rare drop tables).
type TertiaryRoll struct {
	OneInN int
	ItemID int
	Qty    int
}

type DropResult struct {
	ItemID   int
	Quantity int
}

// DropTableRegistry holds every named drop table.
type DropTableRegistry struct {
	tables map[string]*DropTable
}

func NewDropTableRegistry() *DropTableRegistry {
	return &DropTableRegistry{tables: make(map[string]*DropTable)}
}

func (r *DropTableRegistry) Register(t *DropTable) {
	r.tables[t.Name] = t
}

func (r *DropTableRegistry) Get(name string) (*DropTable, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// Roll resolves a named table to zero or more concrete drops, following
// TableRef entries up to maxDropTableDepth before giving up and treating a
// deeper reference as a no-drop.
func (r *DropTableRegistry) Roll(name string, rng *rand.Rand) []DropResult {
	return r.rollDepth(name, rng, 0)
}

func (r *DropTableRegistry) rollDepth(name string, rng *rand.Rand, depth int) []DropResult {
	if depth >= maxDropTableDepth {
		return nil
	}
	table, ok := r.tables[name]
	if !ok {
		return nil
	}

	var results []DropResult
	if entry, hit := rollPrimary(table, rng); hit {
		if entry.TableRef != "" {
			results = append(results, r.rollDepth(entry.TableRef, rng, depth+1)...)
		} else {
			qty := entry.MinQty
			if entry.MaxQty > entry.MinQty {
				qty += rng.Intn(entry.MaxQty - entry.MinQty + 1)
			}
			results = append(results, DropResult{ItemID: entry.ItemID, Quantity: qty})
		}
	}

	for _, t := range table.Tertiary {
		if t.OneInN > 0 && rng.Intn(t.OneInN) == 0 {
			results = append(results, DropResult{ItemID: t.ItemID, Quantity: t.Qty})
		}
	}
	return results
}

// rollPrimary picks exactly one of table.Entries (or none, if the
// NoDropWeight slice of the weight space wins) using weighted selection.
func rollPrimary(table *DropTable, rng *rand.Rand) (DropEntry, bool) {
	total := table.NoDropWeight
	for _, e := range table.Entries {
		total += e.Weight
	}
	if total <= 0 {
		return DropEntry{}, false
	}
	roll := rng.Intn(total)
	if roll < table.NoDropWeight {
		return DropEntry{}, false
	}
	roll -= table.NoDropWeight
	for _, e := range table.Entries {
		if roll < e.Weight {
			return e, true
		}
		roll -= e.Weight
	}
	return DropEntry{}, false
}

func DefaultDropTableRegistry() *DropTableRegistry {
	r := NewDropTableRegistry()
	r.Register(&DropTable{
		Name:         "rat_drops",
		NoDropWeight: 50,
		Entries: []DropEntry{
			{Weight: 40, ItemID: 10, MinQty: 1, MaxQty: 3}, // coins
			{Weight: 10, ItemID: 11, MinQty: 1, MaxQty: 1}, // bones
		},
	})
	r.Register(&DropTable{
		Name:         "goblin_drops",
		NoDropWeight: 30,
		Entries: []DropEntry{
			{Weight: 40, ItemID: 10, MinQty: 5, MaxQty: 15},
			{Weight: 20, ItemID: 11, MinQty: 1, MaxQty: 1},
			{Weight: 10, ItemID: 1, MinQty: 1, MaxQty: 1}, // bronze sword
		},
		Tertiary: []TertiaryRoll{{OneInN: 20, ItemID: 20, Qty: 1}},
	})
	r.Register(&DropTable{
		Name:         "skeleton_drops",
		NoDropWeight: 20,
		Entries: []DropEntry{
			{Weight: 50, ItemID: 10, MinQty: 10, MaxQty: 30},
			{Weight: 20, ItemID: 11, MinQty: 2, MaxQty: 4},
			{Weight: 10, ItemID: 2, MinQty: 1, MaxQty: 1}, // bronze shield
		},
		Tertiary: []TertiaryRoll{{OneInN: 50, ItemID: 20, Qty: 2}},
	})
	return r
}
