package world

import (
	"strconv"

	"github.com/lucas/tileworld/internal/pathfind"
)

// IntentKind discriminates the intent types a connected client may submit.
type IntentKind string

const (
	IntentMove          IntentKind = "move"
	IntentSetTarget     IntentKind = "setTarget"
	IntentSetAttackStyle IntentKind = "setAttackStyle"
	IntentItemAction    IntentKind = "itemAction"
	IntentUnequipItem   IntentKind = "unequipItem"
	IntentChat          IntentKind = "chat"
	IntentPing          IntentKind = "ping"
	IntentQuit          IntentKind = "quit"
	IntentAdminCommand  IntentKind = "adminCommand"
)

// ItemActionKind discriminates the sub-operations IntentItemAction carries,
// keeping the wire envelope small (one message type for the whole
// inventory surface) while still dispatching to distinct handlers.
type ItemActionKind string

const (
	ItemActionUse    ItemActionKind = "use"
	ItemActionDrop   ItemActionKind = "drop"
	ItemActionEquip  ItemActionKind = "equip"
	ItemActionPickup ItemActionKind = "pickup"
)

// Intent is a single client-submitted action, deposited by an ingress
// goroutine and consumed exclusively by the tick goroutine.
type Intent struct {
	AccountID int
	Kind      IntentKind

	MoveX, MoveY int

	TargetID   int
	TargetKind ActorKind

	AttackStyle AttackStyle

	ItemAction ItemActionKind
	InvSlot    int
	EquipSlot  EquipSlot
	GroundItemID int

	ChatText string

	AdminCmd  string
	AdminArgs []string
}

// applyIntent executes one intent against engine state. It never blocks on
// I/O: persistence side effects are queued for the background writer, not
// performed inline.
func (e *Engine) applyIntent(it Intent, now chunkWalkability) {
	p, ok := e.GetPlayer(it.AccountID)
	if !ok {
		return
	}
	// A dead/respawning player is frozen: no movement, combat, items, or
	// admin commands until Respawn() fires. Chat and quit still pass
	// through since neither touches simulation state.
	if !p.IsAlive() && it.Kind != IntentChat && it.Kind != IntentQuit {
		return
	}

	switch it.Kind {
	case IntentMove:
		e.handleMove(p, it, now)
	case IntentSetTarget:
		if it.TargetID != 0 {
			e.SetActorTarget(&p.CharacterState, it.TargetID, it.TargetKind)
		} else {
			e.ClearActorTarget(&p.CharacterState)
		}
	case IntentSetAttackStyle:
		p.SetAttackStyle(it.AttackStyle)
	case IntentItemAction:
		e.handleItemAction(p, it)
	case IntentUnequipItem:
		_ = Unequip(p, it.EquipSlot)
	case IntentChat:
		// Chat has no simulation effect; the transport layer relays ChatText
		// to nearby players directly off the intent, not through engine state.
	case IntentQuit:
		// Session layer handles teardown; the engine only needs to know the
		// player stops receiving moves, which naturally happens once no more
		// intents arrive for this account id.
	case IntentAdminCommand:
		e.handleAdminCommand(p, it)
	}
}

// handleMove resolves a click-to-move intent into a queued path: it runs a
// bounded A* search from the player's current tile to the requested
// destination and installs the result (minus the starting tile, already
// occupied) as the path phasePlayerMovement consumes one tile per tick. An
// unreachable destination or a search that exceeds budget simply leaves the
// player stationary, matching validate_movement's "reject silently, no
// error surfaced to the caller" failure model.
func (e *Engine) handleMove(p *Player, it Intent, grid chunkWalkability) {
	dest := Position{X: it.MoveX, Y: it.MoveY}
	cur := p.Position()
	if cur == dest {
		p.ClearPath()
		return
	}

	path, ok := pathfind.FindPath(
		pathfind.Point{X: cur.X, Y: cur.Y},
		pathfind.Point{X: dest.X, Y: dest.Y},
		grid,
		pathfind.DefaultSearchBudget,
	)
	if !ok || len(path) < 2 {
		return
	}

	steps := make([]Position, 0, len(path)-1)
	for _, pt := range path[1:] {
		steps = append(steps, Position{X: pt.X, Y: pt.Y})
	}
	p.SetPath(steps)
}

func (w chunkWalkability) IsWalkableAt(pos Position) bool {
	return w.e.Chunks.ValidateMovement(pos.X, pos.Y, w.now)
}

func (e *Engine) handleItemAction(p *Player, it Intent) {
	switch it.ItemAction {
	case ItemActionEquip:
		_ = Equip(p, e.Items, it.InvSlot)
	case ItemActionDrop:
		itemID, qty, ok := p.Inventory.RemoveFromSlot(it.InvSlot)
		if ok {
			e.GroundItems.Spawn(itemID, qty, p.Position(), e.CurrentTick, 0, 0)
		}
	case ItemActionPickup:
		gi, ok := e.GroundItems.Get(it.GroundItemID)
		if !ok || !gi.VisibleTo(p.AccountID, e.CurrentTick) {
			return
		}
		gi.mu.RLock()
		pos, itemID, qty := gi.Pos, gi.ItemID, gi.Quantity
		gi.mu.RUnlock()
		if pos != p.Position() {
			return
		}
		if p.Inventory.AddItem(e.Items, itemID, qty) {
			e.GroundItems.Remove(gi.ID)
		}
	case ItemActionUse:
		e.handleUseItem(p, it.InvSlot)
	}
}

func (e *Engine) handleUseItem(p *Player, slot int) {
	p.Inventory.mu.RLock()
	itemID := p.Inventory.Slots[slot]
	p.Inventory.mu.RUnlock()
	if itemID == EmptySlot {
		return
	}
	def, ok := e.Items.Get(itemID)
	if !ok {
		return
	}
	heal := def.GetPropertyInt("heal_amount", 0)
	if heal <= 0 {
		return
	}
	p.Heal(heal)
	p.Inventory.RemoveItem(itemID, 1)
}

// handleAdminCommand is intentionally minimal: the wire protocol names
// adminCommand as part of the message surface without specifying a command
// set, so only the one operation every deployment needs for debugging
// (teleport) is wired; anything else is ignored.
func (e *Engine) handleAdminCommand(p *Player, it Intent) {
	if it.AdminCmd != "teleport" || len(it.AdminArgs) != 2 {
		return
	}
	x, errX := strconv.Atoi(it.AdminArgs[0])
	y, errY := strconv.Atoi(it.AdminArgs[1])
	if errX != nil || errY != nil {
		return
	}
	p.ClearPath()
	p.SetPositionTeleport(Position{X: x, Y: y})
}
