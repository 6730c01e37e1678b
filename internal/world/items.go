package world

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// ItemCategory categorizes an item definition.
type ItemCategory string

const (
	CategoryWeapon     ItemCategory = "weapon"
	CategoryArmor      ItemCategory = "armor"
	CategoryConsumable ItemCategory = "consumable"
	CategoryMaterial   ItemCategory = "material"
)

// ItemRarity is descriptive only: neither drop tables nor combat read it in
// this server.
type ItemRarity string

const (
	RarityCommon    ItemRarity = "common"
	RarityUncommon  ItemRarity = "uncommon"
	RarityRare      ItemRarity = "rare"
	RarityLegendary ItemRarity = "legendary"
)

// ItemDefinition is the static template that inventory slots, equipment
// slots and ground items refer to by its ID. Properties carries combat-relevant
// numbers (damage_bonus, defense_bonus, heal_amount) the way the teacher's
// registry carries placement/vision numbers.
type ItemDefinition struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Category    ItemCategory   `json:"category"`
	Rarity      ItemRarity     `json:"rarity"`
	MaxStack    int            `json:"max_stack"`
	EquipSlot   *EquipSlot     `json:"equip_slot,omitempty"`
	Stackable   bool           `json:"stackable"`
	Properties  map[string]any `json:"properties,omitempty"`
}

func (d *ItemDefinition) GetProperty(key string) (any, bool) {
	if d.Properties == nil {
		return nil, false
	}
	v, ok := d.Properties[key]
	return v, ok
}

func (d *ItemDefinition) GetPropertyInt(key string, defaultVal int) int {
	v, ok := d.GetProperty(key)
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return defaultVal
	}
}

// ItemRegistry holds every item definition the world knows about, keyed by
// definition id (the same id inventory and equipment slots store).
type ItemRegistry struct {
	mu    sync.RWMutex
	items map[int]*ItemDefinition
}

func NewItemRegistry() *ItemRegistry {
	return &ItemRegistry{items: make(map[int]*ItemDefinition)}
}

func (r *ItemRegistry) Register(def *ItemDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[def.ID] = def
}

func (r *ItemRegistry) Get(id int) (*ItemDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.items[id]
	return d, ok
}

func (r *ItemRegistry) GetAll() []*ItemDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]*ItemDefinition, 0, len(r.items))
	for _, d := range r.items {
		defs = append(defs, d)
	}
	return defs
}

func (r *ItemRegistry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read items file: %w", err)
	}
	return r.LoadFromJSON(data)
}

func (r *ItemRegistry) LoadFromJSON(data []byte) error {
	var fileData struct {
		Items []*ItemDefinition `json:"items"`
	}
	if err := json.Unmarshal(data, &fileData); err != nil {
		return fmt.Errorf("parse items JSON: %w", err)
	}
	for _, def := range fileData.Items {
		if def.MaxStack == 0 {
			def.MaxStack = 1
		}
		if def.Rarity == "" {
			def.Rarity = RarityCommon
		}
		r.Register(def)
	}
	return nil
}

func slotPtr(s EquipSlot) *EquipSlot { return &s }

// DefaultItemRegistry seeds the handful of items needed to exercise combat
// and drop tables before real content is authored.
func DefaultItemRegistry() *ItemRegistry {
	r := NewItemRegistry()
	r.Register(&ItemDefinition{ID: 1, Name: "Bronze Sword", Category: CategoryWeapon, Rarity: RarityCommon, MaxStack: 1, EquipSlot: slotPtr(SlotWeapon), Properties: map[string]any{"damage_bonus": 2}})
	r.Register(&ItemDefinition{ID: 2, Name: "Bronze Shield", Category: CategoryArmor, Rarity: RarityCommon, MaxStack: 1, EquipSlot: slotPtr(SlotShield), Properties: map[string]any{"defense_bonus": 2}})
	r.Register(&ItemDefinition{ID: 3, Name: "Leather Body", Category: CategoryArmor, Rarity: RarityCommon, MaxStack: 1, EquipSlot: slotPtr(SlotBody), Properties: map[string]any{"defense_bonus": 1}})
	r.Register(&ItemDefinition{ID: 10, Name: "Coins", Category: CategoryMaterial, Rarity: RarityCommon, MaxStack: 1000000, Stackable: true})
	r.Register(&ItemDefinition{ID: 11, Name: "Bones", Category: CategoryMaterial, Rarity: RarityCommon, MaxStack: 100, Stackable: true})
	r.Register(&ItemDefinition{ID: 20, Name: "Health Potion", Category: CategoryConsumable, Rarity: RarityCommon, MaxStack: 10, Stackable: true, Properties: map[string]any{"heal_amount": 5}})
	return r
}
