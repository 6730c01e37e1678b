package world

import "sync"

// Inventory is the flat, fixed-size slot array: each
// slot holds an item definition id, or EmptySlot. This replaces the
// teacher's pointer-slice-of-slots model, but keeps its method names
// (AddItem/RemoveItem/Equip/Unequip/Snapshot) so the rest of the codebase
// reads the same way the teacher's inventory.go did.
type Inventory struct {
	mu        sync.RWMutex
	Slots     [InventorySize]int // item definition id, EmptySlot if empty
	Quantities [InventorySize]int
}

func NewInventory() Inventory {
	inv := Inventory{}
	for i := range inv.Slots {
		inv.Slots[i] = EmptySlot
	}
	return inv
}

// AddItem places quantity units of itemID into the inventory, stacking onto
// an existing slot when the registry marks the item stackable and under its
// max stack, otherwise consuming the first empty slot. Returns false if
// there is no room.
func (inv *Inventory) AddItem(reg *ItemRegistry, itemID, quantity int) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	def, ok := reg.Get(itemID)
	stackable := ok && def.Stackable
	maxStack := 1
	if ok && def.MaxStack > 0 {
		maxStack = def.MaxStack
	}

	if stackable {
		for i, id := range inv.Slots {
			if id == itemID && inv.Quantities[i] < maxStack {
				room := maxStack - inv.Quantities[i]
				add := quantity
				if add > room {
					add = room
				}
				inv.Quantities[i] += add
				quantity -= add
				if quantity == 0 {
					return true
				}
			}
		}
	}

	for quantity > 0 {
		slot := inv.firstEmptySlot()
		if slot == -1 {
			return false
		}
		add := quantity
		if add > maxStack {
			add = maxStack
		}
		inv.Slots[slot] = itemID
		inv.Quantities[slot] = add
		quantity -= add
	}
	return true
}

func (inv *Inventory) firstEmptySlot() int {
	for i, id := range inv.Slots {
		if id == EmptySlot {
			return i
		}
	}
	return -1
}

// RemoveItem removes up to quantity units of itemID across however many
// slots hold it, returning the actual amount removed.
func (inv *Inventory) RemoveItem(itemID, quantity int) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	removed := 0
	for i, id := range inv.Slots {
		if id != itemID {
			continue
		}
		take := quantity - removed
		if take > inv.Quantities[i] {
			take = inv.Quantities[i]
		}
		inv.Quantities[i] -= take
		removed += take
		if inv.Quantities[i] == 0 {
			inv.Slots[i] = EmptySlot
		}
		if removed == quantity {
			break
		}
	}
	return removed
}

// RemoveFromSlot empties a specific slot entirely, returning the item id and
// quantity that were there.
func (inv *Inventory) RemoveFromSlot(slot int) (itemID, quantity int, ok bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if slot < 0 || slot >= InventorySize || inv.Slots[slot] == EmptySlot {
		return 0, 0, false
	}
	itemID, quantity = inv.Slots[slot], inv.Quantities[slot]
	inv.Slots[slot] = EmptySlot
	inv.Quantities[slot] = 0
	return itemID, quantity, true
}

func (inv *Inventory) GetItemCount(itemID int) int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	total := 0
	for i, id := range inv.Slots {
		if id == itemID {
			total += inv.Quantities[i]
		}
	}
	return total
}

func (inv *Inventory) IsFull() bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	for _, id := range inv.Slots {
		if id == EmptySlot {
			return false
		}
	}
	return true
}

// InventorySnapshot is the serializable slot+quantity pair array sent to a
// player's own client.
type InventorySnapshot struct {
	Slots      [InventorySize]int
	Quantities [InventorySize]int
}

func (inv *Inventory) Snapshot() InventorySnapshot {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return InventorySnapshot{Slots: inv.Slots, Quantities: inv.Quantities}
}

// Equip moves the item in the given inventory slot into its equipment slot
// (derived from the item definition), swapping any previously-equipped item
// into the first empty inventory slot.
func Equip(p *Player, reg *ItemRegistry, invSlot int) error {
	p.Inventory.mu.Lock()
	itemID := p.Inventory.Slots[invSlot]
	if itemID == EmptySlot {
		p.Inventory.mu.Unlock()
		return ErrInvalidSlot
	}
	def, ok := reg.Get(itemID)
	if !ok || def.EquipSlot == nil {
		p.Inventory.mu.Unlock()
		return ErrItemNotFound
	}
	slot := *def.EquipSlot

	p.mu.Lock()
	prev := p.Equipped[slot]
	p.Equipped[slot] = itemID
	p.mu.Unlock()

	p.Inventory.Slots[invSlot] = EmptySlot
	p.Inventory.Quantities[invSlot] = 0
	p.Inventory.mu.Unlock()

	if prev != EmptySlot {
		p.Inventory.mu.Lock()
		freeSlot := p.Inventory.firstEmptySlot()
		if freeSlot != -1 {
			p.Inventory.Slots[freeSlot] = prev
			p.Inventory.Quantities[freeSlot] = 1
		}
		p.Inventory.mu.Unlock()
	}
	return nil
}

// Unequip moves the item in an equipment slot back into the first empty
// inventory slot.
func Unequip(p *Player, slot EquipSlot) error {
	p.mu.Lock()
	itemID := p.Equipped[slot]
	if itemID == EmptySlot {
		p.mu.Unlock()
		return ErrInvalidSlot
	}
	p.mu.Unlock()

	p.Inventory.mu.Lock()
	defer p.Inventory.mu.Unlock()
	freeSlot := p.Inventory.firstEmptySlot()
	if freeSlot == -1 {
		return ErrInvalidSlot
	}
	p.Inventory.Slots[freeSlot] = itemID
	p.Inventory.Quantities[freeSlot] = 1

	p.mu.Lock()
	p.Equipped[slot] = EmptySlot
	p.mu.Unlock()
	return nil
}

// EquipmentBonus sums a named int property (damage_bonus/defense_bonus)
// across every item a player has equipped.
func EquipmentBonus(p *Player, reg *ItemRegistry, property string) int {
	p.mu.RLock()
	eq := p.Equipped
	p.mu.RUnlock()

	total := 0
	for _, itemID := range eq {
		if itemID == EmptySlot {
			continue
		}
		if def, ok := reg.Get(itemID); ok {
			total += def.GetPropertyInt(property, 0)
		}
	}
	return total
}
