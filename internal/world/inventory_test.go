package world

import "testing"

func TestNewInventoryAllSlotsEmpty(t *testing.T) {
	inv := NewInventory()
	for i, id := range inv.Slots {
		if id != EmptySlot {
			t.Fatalf("slot %d = %d, want EmptySlot", i, id)
		}
	}
}

func TestInventoryAddItemStacksUpToMax(t *testing.T) {
	reg := DefaultItemRegistry()
	inv := NewInventory()

	if !inv.AddItem(reg, 11, 60) { // Bones, MaxStack 100
		t.Fatal("expected room for 60 bones")
	}
	if !inv.AddItem(reg, 11, 60) { // 60 more overflows into a second slot
		t.Fatal("expected room for a further 60 bones")
	}
	if got := inv.GetItemCount(11); got != 120 {
		t.Errorf("GetItemCount(bones) = %d, want 120", got)
	}

	nonEmpty := 0
	for _, id := range inv.Slots {
		if id == 11 {
			nonEmpty++
		}
	}
	if nonEmpty != 2 {
		t.Errorf("expected bones split across 2 slots, found in %d", nonEmpty)
	}
}

func TestInventoryAddItemNonStackableConsumesOneSlotEach(t *testing.T) {
	reg := DefaultItemRegistry()
	inv := NewInventory()

	if !inv.AddItem(reg, 1, 1) { // Bronze Sword, MaxStack 1, not stackable
		t.Fatal("expected room for one sword")
	}
	if !inv.AddItem(reg, 1, 1) {
		t.Fatal("expected room for a second sword in a different slot")
	}

	count := 0
	for _, id := range inv.Slots {
		if id == 1 {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 separate sword slots, got %d", count)
	}
}

func TestInventoryAddItemUnknownItemDefaultsToSingleStack(t *testing.T) {
	reg := NewItemRegistry()
	inv := NewInventory()

	if !inv.AddItem(reg, 999, 5) {
		t.Fatal("expected room")
	}
	if got := inv.GetItemCount(999); got != 5 {
		t.Errorf("GetItemCount = %d, want 5 (unknown item defaults to max stack 1, one unit per slot)", got)
	}
}

func TestInventoryAddItemFailsWhenFull(t *testing.T) {
	reg := DefaultItemRegistry()
	inv := NewInventory()

	for i := 0; i < InventorySize; i++ {
		if !inv.AddItem(reg, 1, 1) {
			t.Fatalf("expected slot %d to accept a sword", i)
		}
	}
	if inv.AddItem(reg, 1, 1) {
		t.Fatal("expected AddItem to fail once every slot is occupied")
	}
}

func TestInventoryAddItemPartialOverflowFailsCleanly(t *testing.T) {
	reg := DefaultItemRegistry()
	inv := NewInventory()

	for i := 0; i < InventorySize; i++ {
		inv.AddItem(reg, 1, 1)
	}
	// One stack of coins can't start because there's no empty slot left.
	if inv.AddItem(reg, 10, 5) {
		t.Fatal("expected AddItem to fail when no empty slot remains for a new stack")
	}
}

func TestInventoryRemoveItemAcrossMultipleSlots(t *testing.T) {
	reg := DefaultItemRegistry()
	inv := NewInventory()
	inv.Slots[0], inv.Quantities[0] = 11, 50
	inv.Slots[1], inv.Quantities[1] = 11, 30
	_ = reg

	removed := inv.RemoveItem(11, 60)
	if removed != 60 {
		t.Fatalf("RemoveItem returned %d, want 60", removed)
	}
	if got := inv.GetItemCount(11); got != 20 {
		t.Errorf("remaining bones = %d, want 20", got)
	}
}

func TestInventoryRemoveItemClearsExhaustedSlot(t *testing.T) {
	inv := NewInventory()
	inv.Slots[0], inv.Quantities[0] = 11, 10

	removed := inv.RemoveItem(11, 10)
	if removed != 10 {
		t.Fatalf("removed = %d, want 10", removed)
	}
	if inv.Slots[0] != EmptySlot {
		t.Errorf("expected slot cleared to EmptySlot, got %d", inv.Slots[0])
	}
}

func TestInventoryRemoveItemCapsAtAvailable(t *testing.T) {
	inv := NewInventory()
	inv.Slots[0], inv.Quantities[0] = 11, 5

	if removed := inv.RemoveItem(11, 100); removed != 5 {
		t.Errorf("removed = %d, want capped at 5", removed)
	}
}

func TestInventoryRemoveFromSlot(t *testing.T) {
	inv := NewInventory()
	inv.Slots[3], inv.Quantities[3] = 20, 4

	id, qty, ok := inv.RemoveFromSlot(3)
	if !ok || id != 20 || qty != 4 {
		t.Fatalf("RemoveFromSlot = (%d,%d,%v), want (20,4,true)", id, qty, ok)
	}
	if inv.Slots[3] != EmptySlot || inv.Quantities[3] != 0 {
		t.Error("expected slot 3 cleared")
	}

	if _, _, ok := inv.RemoveFromSlot(3); ok {
		t.Error("expected RemoveFromSlot on an already-empty slot to fail")
	}
	if _, _, ok := inv.RemoveFromSlot(-1); ok {
		t.Error("expected RemoveFromSlot with a negative index to fail")
	}
	if _, _, ok := inv.RemoveFromSlot(InventorySize); ok {
		t.Error("expected RemoveFromSlot out of range to fail")
	}
}

func TestInventoryIsFull(t *testing.T) {
	reg := DefaultItemRegistry()
	inv := NewInventory()
	if inv.IsFull() {
		t.Fatal("fresh inventory should not be full")
	}
	for i := 0; i < InventorySize; i++ {
		inv.AddItem(reg, 1, 1)
	}
	if !inv.IsFull() {
		t.Fatal("expected inventory full after occupying every slot")
	}
}

func TestEquipMovesItemAndSwapsPrevious(t *testing.T) {
	reg := DefaultItemRegistry()
	p := NewPlayer(1, "tester", Position{0, 0})
	p.Inventory.Slots[0], p.Inventory.Quantities[0] = 1, 1 // Bronze Sword

	if err := Equip(p, reg, 0); err != nil {
		t.Fatalf("Equip returned error: %v", err)
	}
	if p.Equipped[SlotWeapon] != 1 {
		t.Errorf("Equipped[SlotWeapon] = %d, want 1", p.Equipped[SlotWeapon])
	}
	if p.Inventory.Slots[0] != EmptySlot {
		t.Errorf("expected source slot cleared, got %d", p.Inventory.Slots[0])
	}

	// Equip a second weapon; the first should swap back into the inventory.
	p.Inventory.Slots[1], p.Inventory.Quantities[1] = 1, 1
	if err := Equip(p, reg, 1); err != nil {
		t.Fatalf("Equip returned error: %v", err)
	}
	found := false
	for i, id := range p.Inventory.Slots {
		if id == 1 && i != 1 {
			found = true
		}
	}
	if !found {
		t.Error("expected previously-equipped sword swapped back into inventory")
	}
}

func TestEquipRejectsEmptySlotAndNonEquippable(t *testing.T) {
	reg := DefaultItemRegistry()
	p := NewPlayer(1, "tester", Position{0, 0})

	if err := Equip(p, reg, 0); err != ErrInvalidSlot {
		t.Errorf("Equip on empty slot = %v, want ErrInvalidSlot", err)
	}

	p.Inventory.Slots[0], p.Inventory.Quantities[0] = 10, 1 // Coins, no EquipSlot
	if err := Equip(p, reg, 0); err != ErrItemNotFound {
		t.Errorf("Equip on non-equippable item = %v, want ErrItemNotFound", err)
	}
}

func TestUnequipReturnsItemToInventory(t *testing.T) {
	reg := DefaultItemRegistry()
	p := NewPlayer(1, "tester", Position{0, 0})
	p.Inventory.Slots[0], p.Inventory.Quantities[0] = 1, 1
	if err := Equip(p, reg, 0); err != nil {
		t.Fatalf("Equip failed: %v", err)
	}

	if err := Unequip(p, SlotWeapon); err != nil {
		t.Fatalf("Unequip returned error: %v", err)
	}
	if p.Equipped[SlotWeapon] != EmptySlot {
		t.Error("expected weapon slot cleared")
	}
	if p.Inventory.GetItemCount(1) != 1 {
		t.Error("expected sword returned to inventory")
	}
}

func TestUnequipRejectsEmptySlot(t *testing.T) {
	p := NewPlayer(1, "tester", Position{0, 0})
	if err := Unequip(p, SlotWeapon); err != ErrInvalidSlot {
		t.Errorf("Unequip on empty equip slot = %v, want ErrInvalidSlot", err)
	}
}

func TestEquipmentBonusSumsAcrossSlots(t *testing.T) {
	reg := DefaultItemRegistry()
	p := NewPlayer(1, "tester", Position{0, 0})
	p.Inventory.Slots[0], p.Inventory.Quantities[0] = 1, 1 // sword, damage_bonus 2
	p.Inventory.Slots[1], p.Inventory.Quantities[1] = 2, 1 // shield, defense_bonus 2
	if err := Equip(p, reg, 0); err != nil {
		t.Fatalf("Equip sword failed: %v", err)
	}
	if err := Equip(p, reg, 1); err != nil {
		t.Fatalf("Equip shield failed: %v", err)
	}

	if got := EquipmentBonus(p, reg, "damage_bonus"); got != 2 {
		t.Errorf("damage_bonus = %d, want 2", got)
	}
	if got := EquipmentBonus(p, reg, "defense_bonus"); got != 2 {
		t.Errorf("defense_bonus = %d, want 2", got)
	}
	if got := EquipmentBonus(p, reg, "unknown_prop"); got != 0 {
		t.Errorf("unknown_prop bonus = %d, want 0", got)
	}
}
