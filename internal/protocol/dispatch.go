package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/lucas/tileworld/internal/world"
)

// Handler converts a decoded inbound envelope into a world.Intent for the
// given account. Returning an error causes the dispatcher to drop the
// message; it never panics the ingress goroutine.
type Handler func(accountID int, data json.RawMessage) (world.Intent, error)

// Registry maps wire type strings to handlers, mirroring the teacher's
// ws/handler.go switch-on-type dispatch but as a lookup table so new
// message types don't require editing a shared switch statement.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.register("move", handleMove)
	r.register("setTarget", handleSetTarget)
	r.register("setAttackStyle", handleSetAttackStyle)
	r.register("itemAction", handleItemAction)
	r.register("unequipItem", handleUnequipItem)
	r.register("chat", handleChat)
	r.register("ping", handlePing)
	r.register("quit", handleQuit)
	r.register("adminCommand", handleAdminCommand)
	return r
}

func (r *Registry) register(msgType string, h Handler) {
	r.handlers[msgType] = h
}

// Dispatch decodes env.Data via the handler registered for env.Type.
// An unrecognized type is not an error — unknown types are ignored — it
// returns ok=false so the caller can skip silently.
func (r *Registry) Dispatch(accountID int, env Envelope) (world.Intent, bool, error) {
	h, ok := r.handlers[env.Type]
	if !ok {
		return world.Intent{}, false, nil
	}
	intent, err := h(accountID, env.Data)
	if err != nil {
		return world.Intent{}, false, err
	}
	return intent, true, nil
}

func handleMove(accountID int, data json.RawMessage) (world.Intent, error) {
	var p MovePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return world.Intent{}, err
	}
	return world.Intent{AccountID: accountID, Kind: world.IntentMove, MoveX: p.X, MoveY: p.Y}, nil
}

func handleSetTarget(accountID int, data json.RawMessage) (world.Intent, error) {
	var p SetTargetPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return world.Intent{}, err
	}
	kind := world.ActorPlayer
	if p.TargetKind == "npc" {
		kind = world.ActorNpc
	}
	return world.Intent{AccountID: accountID, Kind: world.IntentSetTarget, TargetID: p.TargetID, TargetKind: kind}, nil
}

func handleSetAttackStyle(accountID int, data json.RawMessage) (world.Intent, error) {
	var p SetAttackStylePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return world.Intent{}, err
	}
	var style world.AttackStyle
	switch p.Style {
	case "aggressive":
		style = world.StyleAggressive
	case "defensive":
		style = world.StyleDefensive
	default:
		style = world.StyleAccurate
	}
	return world.Intent{AccountID: accountID, Kind: world.IntentSetAttackStyle, AttackStyle: style}, nil
}

func handleItemAction(accountID int, data json.RawMessage) (world.Intent, error) {
	var p ItemActionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return world.Intent{}, err
	}
	var action world.ItemActionKind
	switch p.Action {
	case "use":
		action = world.ItemActionUse
	case "drop":
		action = world.ItemActionDrop
	case "equip":
		action = world.ItemActionEquip
	case "pickup":
		action = world.ItemActionPickup
	default:
		return world.Intent{}, fmt.Errorf("protocol: unknown item action %q", p.Action)
	}
	return world.Intent{
		AccountID: accountID, Kind: world.IntentItemAction,
		ItemAction: action, InvSlot: p.Slot, GroundItemID: p.GroundItemID,
	}, nil
}

var equipSlotNames = map[string]world.EquipSlot{
	"head": world.SlotHead, "cape": world.SlotCape, "neck": world.SlotNeck,
	"weapon": world.SlotWeapon, "body": world.SlotBody, "shield": world.SlotShield,
	"legs": world.SlotLegs, "hands": world.SlotHands, "feet": world.SlotFeet,
}

func handleUnequipItem(accountID int, data json.RawMessage) (world.Intent, error) {
	var p UnequipItemPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return world.Intent{}, err
	}
	slot, ok := equipSlotNames[p.Slot]
	if !ok {
		return world.Intent{}, fmt.Errorf("protocol: unknown equip slot %q", p.Slot)
	}
	return world.Intent{AccountID: accountID, Kind: world.IntentUnequipItem, EquipSlot: slot}, nil
}

func handleChat(accountID int, data json.RawMessage) (world.Intent, error) {
	var p ChatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return world.Intent{}, err
	}
	return world.Intent{AccountID: accountID, Kind: world.IntentChat, ChatText: p.Text}, nil
}

func handlePing(accountID int, data json.RawMessage) (world.Intent, error) {
	return world.Intent{AccountID: accountID, Kind: world.IntentPing}, nil
}

func handleQuit(accountID int, data json.RawMessage) (world.Intent, error) {
	return world.Intent{AccountID: accountID, Kind: world.IntentQuit}, nil
}

func handleAdminCommand(accountID int, data json.RawMessage) (world.Intent, error) {
	var p AdminCommandPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return world.Intent{}, err
	}
	return world.Intent{AccountID: accountID, Kind: world.IntentAdminCommand, AdminCmd: p.Command, AdminArgs: p.Args}, nil
}
