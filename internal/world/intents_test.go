package world

import (
	"testing"
	"time"
)

func TestApplyIntentSetAttackStyle(t *testing.T) {
	e := testEngine(t, nil)
	p := NewPlayer(1, "alice", Position{0, 0})
	e.AddPlayer(p)

	e.applyIntent(Intent{AccountID: 1, Kind: IntentSetAttackStyle, AttackStyle: StyleAggressive}, e.grid(time.Now()))

	if p.GetAttackStyle() != StyleAggressive {
		t.Errorf("AttackStyle = %v, want StyleAggressive", p.GetAttackStyle())
	}
}

func TestApplyIntentSetAndClearTarget(t *testing.T) {
	e := testEngine(t, nil)
	p := NewPlayer(1, "alice", Position{0, 0})
	e.AddPlayer(p)

	e.applyIntent(Intent{AccountID: 1, Kind: IntentSetTarget, TargetID: 5, TargetKind: ActorNpc}, e.grid(time.Now()))
	id, kind, has := p.CurrentTarget()
	if !has || id != 5 || kind != ActorNpc {
		t.Fatalf("CurrentTarget = (%d,%v,%v), want (5,ActorNpc,true)", id, kind, has)
	}

	e.applyIntent(Intent{AccountID: 1, Kind: IntentSetTarget, TargetID: 0}, e.grid(time.Now()))
	if _, _, has := p.CurrentTarget(); has {
		t.Error("expected target cleared when TargetID is 0")
	}
}

func TestApplyIntentItemActionEquip(t *testing.T) {
	e := testEngine(t, nil)
	p := NewPlayer(1, "alice", Position{0, 0})
	e.AddPlayer(p)
	p.Inventory.Slots[0], p.Inventory.Quantities[0] = 1, 1 // Bronze Sword

	e.applyIntent(Intent{AccountID: 1, Kind: IntentItemAction, ItemAction: ItemActionEquip, InvSlot: 0}, e.grid(time.Now()))

	if p.Equipped[SlotWeapon] != 1 {
		t.Errorf("Equipped[SlotWeapon] = %d, want 1", p.Equipped[SlotWeapon])
	}
}

func TestApplyIntentUnequipItem(t *testing.T) {
	e := testEngine(t, nil)
	p := NewPlayer(1, "alice", Position{0, 0})
	e.AddPlayer(p)
	p.Inventory.Slots[0], p.Inventory.Quantities[0] = 1, 1
	if err := Equip(p, e.Items, 0); err != nil {
		t.Fatalf("setup Equip failed: %v", err)
	}

	e.applyIntent(Intent{AccountID: 1, Kind: IntentUnequipItem, EquipSlot: SlotWeapon}, e.grid(time.Now()))

	if p.Equipped[SlotWeapon] != EmptySlot {
		t.Error("expected weapon unequipped")
	}
	if p.Inventory.GetItemCount(1) != 1 {
		t.Error("expected sword returned to inventory")
	}
}

func TestApplyIntentItemActionDropSpawnsGroundItem(t *testing.T) {
	e := testEngine(t, nil)
	p := NewPlayer(1, "alice", Position{3, 3})
	e.AddPlayer(p)
	p.Inventory.Slots[0], p.Inventory.Quantities[0] = 10, 25 // coins

	e.applyIntent(Intent{AccountID: 1, Kind: IntentItemAction, ItemAction: ItemActionDrop, InvSlot: 0}, e.grid(time.Now()))

	if p.Inventory.Slots[0] != EmptySlot {
		t.Error("expected source slot emptied after drop")
	}
	found := false
	for _, gi := range e.GroundItems.InChunk(WorldToChunk(3, 3)) {
		if gi.ItemID == 10 && gi.Quantity == 25 {
			found = true
		}
	}
	if !found {
		t.Error("expected a ground item spawned at the player's position")
	}
}

func TestApplyIntentItemActionPickupRequiresSamePositionAndVisibility(t *testing.T) {
	e := testEngine(t, nil)
	p := NewPlayer(1, "alice", Position{0, 0})
	e.AddPlayer(p)
	gi := e.GroundItems.Spawn(10, 5, Position{0, 0}, e.CurrentTick, 99, 50) // reserved for someone else

	e.applyIntent(Intent{AccountID: 1, Kind: IntentItemAction, ItemAction: ItemActionPickup, GroundItemID: gi.ID}, e.grid(time.Now()))
	if p.Inventory.GetItemCount(10) != 0 {
		t.Error("expected pickup blocked by another player's reservation")
	}

	gi2 := e.GroundItems.Spawn(11, 3, Position{9, 9}, e.CurrentTick, 0, 0) // far away, unreserved
	e.applyIntent(Intent{AccountID: 1, Kind: IntentItemAction, ItemAction: ItemActionPickup, GroundItemID: gi2.ID}, e.grid(time.Now()))
	if p.Inventory.GetItemCount(11) != 0 {
		t.Error("expected pickup blocked when player isn't standing on the item")
	}

	gi3 := e.GroundItems.Spawn(12, 2, Position{0, 0}, e.CurrentTick, 0, 0)
	e.applyIntent(Intent{AccountID: 1, Kind: IntentItemAction, ItemAction: ItemActionPickup, GroundItemID: gi3.ID}, e.grid(time.Now()))
	if p.Inventory.GetItemCount(12) != 2 {
		t.Error("expected pickup to succeed when visible and co-located")
	}
	if _, ok := e.GroundItems.Get(gi3.ID); ok {
		t.Error("expected the picked-up ground item removed from the store")
	}
}

func TestApplyIntentItemActionUseConsumesHealingItem(t *testing.T) {
	e := testEngine(t, nil)
	p := NewPlayer(1, "alice", Position{0, 0})
	e.AddPlayer(p)
	p.TakeDamage(5)
	p.Inventory.Slots[0], p.Inventory.Quantities[0] = 20, 1 // health potion, heal 5

	e.applyIntent(Intent{AccountID: 1, Kind: IntentItemAction, ItemAction: ItemActionUse, InvSlot: 0}, e.grid(time.Now()))

	if p.HP() != p.Hitpoints.BaseLevel {
		t.Errorf("HP = %d, want fully healed to %d", p.HP(), p.Hitpoints.BaseLevel)
	}
	if p.Inventory.GetItemCount(20) != 0 {
		t.Error("expected the potion consumed")
	}
}

func TestApplyIntentAdminCommandTeleport(t *testing.T) {
	e := testEngine(t, nil)
	p := NewPlayer(1, "alice", Position{0, 0})
	e.AddPlayer(p)

	e.applyIntent(Intent{AccountID: 1, Kind: IntentAdminCommand, AdminCmd: "teleport", AdminArgs: []string{"7", "9"}}, e.grid(time.Now()))

	if got := p.Position(); got != (Position{7, 9}) {
		t.Errorf("Position after teleport = %v, want (7,9)", got)
	}
}

func TestApplyIntentAdminCommandIgnoresUnknown(t *testing.T) {
	e := testEngine(t, nil)
	p := NewPlayer(1, "alice", Position{0, 0})
	e.AddPlayer(p)

	e.applyIntent(Intent{AccountID: 1, Kind: IntentAdminCommand, AdminCmd: "smite", AdminArgs: []string{"1", "2"}}, e.grid(time.Now()))

	if got := p.Position(); got != (Position{0, 0}) {
		t.Error("expected unknown admin command to have no effect")
	}
}

func TestApplyIntentUnknownAccountIsNoOp(t *testing.T) {
	e := testEngine(t, nil)
	// No player registered for account 42; applying any intent must not panic.
	e.applyIntent(Intent{AccountID: 42, Kind: IntentMove, MoveX: 1}, e.grid(time.Now()))
}
