package world

import (
	"strconv"
	"sync"
)

// Position is a world tile coordinate.
type Position struct {
	X, Y int
}

func (p Position) Chebyshev(o Position) int {
	return maxInt(absInt(p.X-o.X), absInt(p.Y-o.Y))
}

func (p Position) AdjacentCardinal(o Position) bool {
	dx := absInt(p.X - o.X)
	dy := absInt(p.Y - o.Y)
	return dx+dy == 1
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ActorKind distinguishes the two concrete variants of CharacterState,
// implementing "Actor = Player | Npc" tagged-union note as a
// Go embedding pattern rather than an interface: both Player and Npc embed
// CharacterState, and code that must treat them uniformly (combat,
// visibility, AI targeting) takes *CharacterState plus this tag.
type ActorKind int

const (
	ActorPlayer ActorKind = iota
	ActorNpc
)

// attackerKey formats the "{Player|NPC}_{id}" key damage_sources is keyed
// by, so kill-credit attribution can tell two attackers of different kinds
// apart even when their numeric ids collide.
func attackerKey(kind ActorKind, id int) string {
	if kind == ActorPlayer {
		return "Player_" + strconv.Itoa(id)
	}
	return "NPC_" + strconv.Itoa(id)
}

// CharacterState is the state every living thing in the world shares:
// position, combat skills, life/death, movement-path, and target
// bookkeeping. Player and Npc each embed one, mirroring the teacher's single
// Agent struct but split so player-only and npc-only fields don't leak
// across the union.
type CharacterState struct {
	mu sync.RWMutex

	ID   int
	Kind ActorKind

	Pos Position

	// Path is the queued A*/greedy-step output consumed one tile per tick;
	// IsMoving reflects whether Path is non-empty.
	Path     []Position
	IsMoving bool

	// TeleportMoveFlag is set once by an instantaneous position change
	// (admin teleport, respawn) and cleared the tick after it is snapshotted
	// for egress, per the epilogue's phase-10 bookkeeping.
	TeleportMoveFlag bool

	// IsDirty marks a character whose state changed this tick in a way a
	// visible observer needs to hear about (position, damage, death, target).
	IsDirty bool

	Attack    Skill
	Strength  Skill
	Defense   Skill
	Hitpoints Skill

	Alive          bool
	RespawnAtTick  int64
	LastAttackTick int64
	AttackCooldown int64 // ticks

	Target     int // actor id this character is attacking/pursuing, 0 = none
	TargetKind ActorKind

	TargetedBy map[actorRef]struct{} // reverse index: who has this character targeted

	DamageThisTick []int          // individual hits landed on this character this tick
	DamageLastTick []int          // previous tick's DamageThisTick, for one-tick-late splat egress
	DamageSources  map[string]int // attackerKey -> cumulative damage, cleared once health is full
}

type actorRef struct {
	ID   int
	Kind ActorKind
}

func newCharacterState(id int, kind ActorKind, pos Position, attack, strength, defense, hitpoints int) CharacterState {
	return CharacterState{
		ID:         id,
		Kind:       kind,
		Pos:        pos,
		Attack:     NewSkill(SkillAttack, attack),
		Strength:   NewSkill(SkillStrength, strength),
		Defense:    NewSkill(SkillDefense, defense),
		Hitpoints:  NewSkill(SkillHitpoints, hitpoints),
		Alive:      true,
		TargetedBy: make(map[actorRef]struct{}),
	}
}

func (c *CharacterState) ref() actorRef { return actorRef{ID: c.ID, Kind: c.Kind} }

func (c *CharacterState) Position() Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Pos
}

func (c *CharacterState) SetPosition(p Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Pos = p
	c.IsDirty = true
}

// SetPositionTeleport is SetPosition plus the one-shot teleport flag used by
// admin commands and respawn, distinguishing an instantaneous jump from
// ordinary path-consuming movement in the egress snapshot.
func (c *CharacterState) SetPositionTeleport(p Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Pos = p
	c.IsDirty = true
	c.TeleportMoveFlag = true
}

// SetPath installs a queued sequence of tiles to be consumed one per tick.
func (c *CharacterState) SetPath(path []Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Path = path
	c.IsMoving = len(path) > 0
}

func (c *CharacterState) ClearPath() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Path = nil
	c.IsMoving = false
}

func (c *CharacterState) HasPath() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Path) > 0
}

// NextPathStep pops and returns the next queued tile, if any.
func (c *CharacterState) NextPathStep() (Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Path) == 0 {
		return Position{}, false
	}
	next := c.Path[0]
	c.Path = c.Path[1:]
	c.IsMoving = len(c.Path) > 0
	return next, true
}

func (c *CharacterState) IsAlive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Alive
}

func (c *CharacterState) HP() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Hitpoints.CurrentValue
}

func (c *CharacterState) SetTarget(id int, kind ActorKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Target = id
	c.TargetKind = kind
	c.IsDirty = true
}

func (c *CharacterState) ClearTarget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Target = 0
	c.IsDirty = true
}

func (c *CharacterState) CurrentTarget() (int, ActorKind, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Target, c.TargetKind, c.Target != 0
}

func (c *CharacterState) addTargetedBy(by *CharacterState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TargetedBy[by.ref()] = struct{}{}
}

func (c *CharacterState) removeTargetedBy(by *CharacterState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.TargetedBy, by.ref())
}

func (c *CharacterState) targetedByCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.TargetedBy)
}

// targetedBySnapshot returns every actor currently targeting c, so a caller
// releasing c's reverse index can clear each of their forward references in
// turn (on_death's "release from all targeted_by entries").
func (c *CharacterState) targetedBySnapshot() []actorRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	refs := make([]actorRef, 0, len(c.TargetedBy))
	for r := range c.TargetedBy {
		refs = append(refs, r)
	}
	c.TargetedBy = make(map[actorRef]struct{})
	return refs
}

// TakeDamage applies combat damage with no attacker attribution (used by
// non-combat damage sources, e.g. scripted/test damage). Kills the character
// when hitpoints reach zero, returning whether this hit was lethal.
func (c *CharacterState) TakeDamage(amount int) (lethal bool) {
	return c.TakeDamageFrom(amount, "")
}

// TakeDamageFrom applies combat damage attributed to attackerKey (see the
// package-level attackerKey helper), recording it into damage_this_tick and
// damage_sources for kill-credit attribution and splat egress, and resets
// the health skill's regen counter per the spec's damage-application rule.
func (c *CharacterState) TakeDamageFrom(amount int, attackerKey string) (lethal bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.Alive {
		return false
	}
	c.Hitpoints.Damage(amount)
	c.Hitpoints.ResetRegenCounter()
	c.DamageThisTick = append(c.DamageThisTick, amount)
	c.IsDirty = true
	if attackerKey != "" {
		if c.DamageSources == nil {
			c.DamageSources = make(map[string]int)
		}
		c.DamageSources[attackerKey] += amount
	}
	if c.Hitpoints.CurrentValue == 0 {
		c.Alive = false
		return true
	}
	return false
}

// clearDamageSourcesIfFull implements the prologue rule "clear damage_sources
// when current_value == base_level": once a character has fully healed,
// stale attacker credit from an earlier fight no longer applies to a future
// kill.
func (c *CharacterState) clearDamageSourcesIfFull() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Hitpoints.CurrentValue == c.Hitpoints.BaseLevel {
		c.DamageSources = nil
	}
}

// damageSourcesSnapshot returns a copy of the attacker-credit map for
// kill-attribution, taken at the moment of death.
func (c *CharacterState) damageSourcesSnapshot() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int, len(c.DamageSources))
	for k, v := range c.DamageSources {
		out[k] = v
	}
	return out
}

// Kill marks the character dead directly (used for scripted deaths outside
// the normal damage path) and schedules its respawn tick.
func (c *CharacterState) Kill(currentTick int64, respawnDelayTicks int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Alive = false
	c.Hitpoints.CurrentValue = 0
	c.RespawnAtTick = currentTick + respawnDelayTicks
	c.Target = 0
	c.ClearPathLocked()
	c.IsDirty = true
}

// ClearPathLocked clears Path/IsMoving; callers must already hold c.mu.
func (c *CharacterState) ClearPathLocked() {
	c.Path = nil
	c.IsMoving = false
}

func (c *CharacterState) ShouldRespawn(currentTick int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.Alive && currentTick >= c.RespawnAtTick
}

func (c *CharacterState) Respawn(pos Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Alive = true
	c.Pos = pos
	c.Attack.ResetToBase()
	c.Strength.ResetToBase()
	c.Defense.ResetToBase()
	c.Hitpoints.ResetToBase()
	c.RespawnAtTick = 0
	c.ClearPathLocked()
	c.TeleportMoveFlag = true
	c.IsDirty = true
}

func (c *CharacterState) OnAttackCooldown(currentTick int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return currentTick-c.LastAttackTick < c.AttackCooldown
}

func (c *CharacterState) RecordAttack(currentTick int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LastAttackTick = currentTick
}

// Heal restores up to amount hitpoints, capped at the skill's base level.
func (c *CharacterState) Heal(amount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.Alive {
		return
	}
	c.Hitpoints.CurrentValue += amount
	if c.Hitpoints.CurrentValue > c.Hitpoints.BaseLevel {
		c.Hitpoints.CurrentValue = c.Hitpoints.BaseLevel
	}
	c.IsDirty = true
}

func (c *CharacterState) RegenTick(regenTicks int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Alive {
		c.Hitpoints.Regen(regenTicks)
	}
}

// endTickBookkeeping runs the epilogue's phase-10 per-character bookkeeping:
// rotate damage_this_tick into damage_last_tick, reset the dirty flag, and
// clear the one-shot teleport flag now that it has been snapshotted by this
// tick's egress phase.
func (c *CharacterState) endTickBookkeeping() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DamageLastTick = c.DamageThisTick
	c.DamageThisTick = nil
	c.IsDirty = false
	c.TeleportMoveFlag = false
}

// CharacterSnapshot is the read-only view sent to transport/tests.
type CharacterSnapshot struct {
	ID       int
	Kind     ActorKind
	Pos      Position
	HP       int
	MaxHP    int
	Alive    bool
	Target   int
	IsMoving bool
}

func (c *CharacterState) Snapshot() CharacterSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CharacterSnapshot{
		ID:       c.ID,
		Kind:     c.Kind,
		Pos:      c.Pos,
		HP:       c.Hitpoints.CurrentValue,
		MaxHP:    c.Hitpoints.BaseLevel,
		Alive:    c.Alive,
		Target:   c.Target,
		IsMoving: c.IsMoving,
	}
}
