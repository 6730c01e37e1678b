package world

import (
	"strconv"
	"strings"
	"time"
)

// Tick runs exactly one simulation step in the fixed 10-phase order. It must
// never be called concurrently with itself — the caller (cmd/server's
// time.Ticker loop) is the only writer of world state.
func (e *Engine) Tick(now time.Time) {
	e.CurrentTick++
	grid := e.grid(now)

	e.phasePrologue(grid)
	e.phasePlayerMovement(grid)
	e.phaseNpcMovement(grid)
	e.phasePlayerCombat()
	e.phaseNpcCombat()
	e.phaseDeathSettlement()
	e.phaseRespawnProcessing(now)
	e.phaseGroundItemAging()
	diffs := e.phaseVisibilityDiffEgress(now)
	e.phaseEpilogue(now)

	e.publish(diffs)
}

// phasePrologue drains the intent queue deposited by ingress goroutines
// since the last tick and advances attack-cooldown-independent bookkeeping
// (regen ticks).
func (e *Engine) phasePrologue(grid chunkWalkability) {
	for _, it := range e.drainIntents() {
		e.applyIntent(it, grid)
	}
	for _, p := range e.playersSnapshotMap() {
		p.RegenTick(e.cfg.RegenTicks)
		p.clearDamageSourcesIfFull()
	}
	for _, n := range e.npcsSnapshotMap() {
		n.RegenTick(e.cfg.RegenTicks)
		n.clearDamageSourcesIfFull()
	}
}

// phasePlayerMovement consumes one queued path tile per live player, the
// click-to-move counterpart to phaseNpcMovement's greedy step: handleMove
// (run in the prologue) computed the full A* path into CharacterState.Path,
// this phase walks it one tile per tick so a multi-tile move takes multiple
// ticks instead of teleporting to the destination.
func (e *Engine) phasePlayerMovement(grid chunkWalkability) {
	for _, p := range e.playersSnapshotMap() {
		if !p.IsAlive() {
			continue
		}
		next, ok := p.NextPathStep()
		if !ok {
			continue
		}
		if !grid.IsWalkableAt(next) {
			p.ClearPath()
			continue
		}
		p.SetPosition(next)
		e.updatePlayerChunk(p, grid.now)
	}
}

// phaseNpcMovement steps every active zone's NPCs: aggro acquisition,
// greedy pursuit, and zone-containment reversion.
func (e *Engine) phaseNpcMovement(grid chunkWalkability) {
	players := e.playersSnapshotMap()
	for _, zone := range e.Zones.All() {
		def := zone.Def
		typeDef, ok := e.NpcTypes.Get(def.NpcTypeID)
		if !ok {
			continue
		}
		for _, npcID := range zone.npcSnapshot() {
			n, ok := e.npcByID(npcID)
			if !ok {
				continue
			}
			before := n.Position()
			StepNpc(n, def, players, typeDef, grid, e.aiRand, e.SetActorTarget, e.ClearActorTarget)
			if n.Position() != before {
				e.updateNpcChunk(n, grid.now)
			}
		}
	}
}

func (e *Engine) npcByID(id int) (*Npc, bool) {
	e.npcsMu.RLock()
	defer e.npcsMu.RUnlock()
	n, ok := e.Npcs[id]
	return n, ok
}

// phasePlayerCombat resolves attacks initiated by players with a live
// target, cardinal-adjacent, off cooldown.
func (e *Engine) phasePlayerCombat() {
	for _, p := range e.playersSnapshotMap() {
		if !p.IsAlive() {
			continue
		}
		targetID, targetKind, has := p.CurrentTarget()
		if !has {
			continue
		}
		var defender *CharacterState
		switch targetKind {
		case ActorPlayer:
			if other, ok := e.GetPlayer(targetID); ok {
				defender = &other.CharacterState
			}
		case ActorNpc:
			if n, ok := e.npcByID(targetID); ok {
				defender = &n.CharacterState
			}
		}
		if defender == nil {
			continue
		}
		equipBonus := func(prop string) int { return EquipmentBonus(p, e.Items, prop) }
		result, err := Attack(e.Items, e.CombatFormula, e.combatRand, &p.CharacterState, defender, equipBonus, e.CurrentTick, e.cfg.PlayerRespawnTicks)
		if err != nil {
			continue
		}
		e.grantCombatXP(p, result)
		e.retaliate(defender, &p.CharacterState)
		if result.Lethal {
			e.onDeath(defender)
			e.settleKill(defender)
		}
	}
}

// retaliate makes a live, currently-untargeted defender target its
// attacker, per the Open Question decision that retaliation is
// unconditional regardless of the NPC's aggression flag.
func (e *Engine) retaliate(defender, attacker *CharacterState) {
	if !defender.IsAlive() {
		return
	}
	if _, _, has := defender.CurrentTarget(); !has {
		e.SetActorTarget(defender, attacker.ID, attacker.Kind)
	}
}

func (e *Engine) grantCombatXP(p *Player, result *AttackResult) {
	if result.Damage <= 0 {
		return
	}
	skill := XPForStyle(p.GetAttackStyle())
	xp := XPForDamage(result.Damage)
	switch skill {
	case SkillAttack:
		p.Attack.AddXP(xp)
	case SkillStrength:
		p.Strength.AddXP(xp)
	case SkillDefense:
		p.Defense.AddXP(xp)
	}
}

// phaseNpcCombat resolves attacks from attacking-state NPCs against their
// target, mirroring phasePlayerCombat's shape without the style/XP concerns.
func (e *Engine) phaseNpcCombat() {
	for _, n := range e.npcsSnapshotMap() {
		if !n.IsAlive() || n.GetAIState() != AIAttacking {
			continue
		}
		targetID, _, has := n.CurrentTarget()
		if !has {
			continue
		}
		target, ok := e.GetPlayer(targetID)
		if !ok {
			continue
		}
		result, err := Attack(e.Items, e.CombatFormula, e.combatRand, &n.CharacterState, &target.CharacterState, nil, e.CurrentTick, e.cfg.PlayerRespawnTicks)
		if err != nil {
			continue
		}
		e.retaliate(&target.CharacterState, &n.CharacterState)
		if result.Lethal {
			e.onDeath(&target.CharacterState)
			e.settleKill(&target.CharacterState)
		}
	}
}

// phaseDeathSettlement is a placeholder ordering slot: lethal hits are
// settled inline by the combat phases above (drop rolls must happen
// immediately, using the attacker that is still in scope), so this phase
// only clears any stale target references pointing at a character that
// died earlier in this same tick.
func (e *Engine) phaseDeathSettlement() {
	for _, p := range e.playersSnapshotMap() {
		if id, kind, has := p.CurrentTarget(); has && !e.actorAlive(id, kind) {
			e.ClearActorTarget(&p.CharacterState)
		}
	}
	for _, n := range e.npcsSnapshotMap() {
		if id, kind, has := n.CurrentTarget(); has && !e.actorAlive(id, kind) {
			e.ClearActorTarget(&n.CharacterState)
			n.SetAIState(AIIdle)
		}
	}
}

func (e *Engine) actorAlive(id int, kind ActorKind) bool {
	switch kind {
	case ActorPlayer:
		p, ok := e.GetPlayer(id)
		return ok && p.IsAlive()
	case ActorNpc:
		n, ok := e.npcByID(id)
		return ok && n.IsAlive()
	}
	return false
}

// onDeath runs the on_death hook shared by every victim kind regardless of
// whether it drops loot: clear its own target and release every attacker
// that had it targeted, so nothing keeps swinging at a corpse.
func (e *Engine) onDeath(victim *CharacterState) {
	victim.ClearTarget()
	e.releaseTargetedBy(victim)
}

// parsePlayerDamageKey extracts the account id from a "Player_{id}"
// damage_sources key, reporting false for "NPC_{id}" keys or anything
// malformed.
func parsePlayerDamageKey(key string) (int, bool) {
	const prefix = "Player_"
	if !strings.HasPrefix(key, prefix) {
		return 0, false
	}
	id, err := strconv.Atoi(key[len(prefix):])
	if err != nil {
		return 0, false
	}
	return id, true
}

// argmaxDamageSource picks the kill-credit winner: the player account that
// contributed the most damage_sources damage, breaking ties uniformly at
// random. NPC-attributed damage doesn't compete for kill credit since only
// players claim ground-item reservation windows.
func argmaxDamageSource(sources map[string]int, pick func(n int) int) (accountID int, ok bool) {
	best := -1
	var tied []int
	for key, dmg := range sources {
		id, isPlayer := parsePlayerDamageKey(key)
		if !isPlayer {
			continue
		}
		switch {
		case dmg > best:
			best = dmg
			tied = []int{id}
		case dmg == best:
			tied = append(tied, id)
		}
	}
	if len(tied) == 0 {
		return 0, false
	}
	if len(tied) == 1 {
		return tied[0], true
	}
	return tied[pick(len(tied))], true
}

// settleKill rolls drops for an NPC victim (players don't drop their
// inventory on death in this design — only NPC kills feed the loot loop)
// and credits the highest damage_sources contributor with a reserved
// ground item window.
func (e *Engine) settleKill(victim *CharacterState) {
	if victim.Kind != ActorNpc {
		return
	}
	n, ok := e.npcByID(victim.ID)
	if !ok {
		return
	}
	typeDef, ok := e.NpcTypes.Get(n.TypeID)
	if !ok {
		return
	}
	const killDropReserveTicks = 20 // ticks a kill drop stays visible only to the kill-credit player
	killerAccountID, _ := argmaxDamageSource(victim.damageSourcesSnapshot(), e.combatRand.Intn)
	pos := n.Position()
	for _, drop := range e.Drops.Roll(typeDef.DropTableRef, e.combatRand) {
		e.GroundItems.Spawn(drop.ItemID, drop.Quantity, pos, e.CurrentTick, killerAccountID, killDropReserveTicks)
	}
	if zone, ok := e.Zones.Get(n.ZoneKey); ok {
		zone.removeNpc(n.ID)
	}
	e.RemoveNpc(n.ID)
}

// phaseRespawnProcessing revives players and respawns NPCs whose timer has
// elapsed.
func (e *Engine) phaseRespawnProcessing(now time.Time) {
	spawn := Position{X: e.cfg.SpawnX, Y: e.cfg.SpawnY}
	for _, p := range e.playersSnapshotMap() {
		if p.IsAlive() {
			p.mu.Lock()
			p.RespawnTicksRemaining = 0
			p.mu.Unlock()
			continue
		}
		remaining := p.RespawnAtTick - e.CurrentTick
		if remaining < 0 {
			remaining = 0
		}
		p.mu.Lock()
		p.RespawnTicksRemaining = remaining
		p.mu.Unlock()
		if p.ShouldRespawn(e.CurrentTick) {
			p.Respawn(spawn)
			e.updatePlayerChunk(p, now)
		}
	}
	ticksPerSecond := int64(0)
	if e.cfg.TickDuration > 0 {
		ticksPerSecond = int64(time.Second / e.cfg.TickDuration)
	}
	for _, zone := range e.Zones.All() {
		def := zone.Def
		if zone.npcCount() >= def.MaxCount {
			continue
		}
		zone.mu.Lock()
		ready := e.CurrentTick >= zone.NextSpawnTick
		if ready {
			zone.NextSpawnTick = e.CurrentTick + int64(def.RespawnSecs)*ticksPerSecond
		}
		zone.mu.Unlock()
		if !ready {
			continue
		}
		n := e.SpawnNpc(def.NpcTypeID, def.Key(), Position{X: def.MinX, Y: def.MinY})
		if n != nil {
			zone.addNpc(n.ID)
		}
	}
}

// phaseGroundItemAging advances every ground item's despawn timer.
func (e *Engine) phaseGroundItemAging() {
	e.GroundItems.AgeAll()
}

// EgressDiff pairs a player with the visibility delta to send them this
// tick.
type EgressDiff struct {
	AccountID int
	Diff      VisibilityDiff
}

func (e *Engine) phaseVisibilityDiffEgress(now time.Time) []EgressDiff {
	players := e.playersSnapshotMap()
	npcs := e.npcsSnapshotMap()
	diffs := make([]EgressDiff, 0, len(players))
	for _, p := range players {
		d := e.Visibility.Recompute(p, e.Chunks, e.Zones, players, npcs, e.GroundItems, e.CurrentTick, now)
		diffs = append(diffs, EgressDiff{AccountID: p.AccountID, Diff: d})
	}
	return diffs
}

// phaseEpilogue runs the periodic sweeps (zone WARM->COLD eviction and
// chunk cleanup, both gated by tick count rather than wall clock so they
// stay deterministic relative to the tick index in tests) and then every
// character's phase-10 per-tick bookkeeping: rotate damage_this_tick into
// damage_last_tick, clear the dirty flag, clear the one-shot teleport flag,
// and reset players' per-tick action budget.
func (e *Engine) phaseEpilogue(now time.Time) {
	ticksPerSweep := int64(e.cfg.CooldownSweepSecs * 1000 / int(e.cfg.TickDuration.Milliseconds()))
	if ticksPerSweep > 0 && e.CurrentTick%ticksPerSweep == 0 {
		cold := e.Zones.Sweep(now)
		for _, z := range cold {
			for _, npcID := range z.npcSnapshot() {
				e.RemoveNpc(npcID)
			}
			e.Chunks.markZoneInactive(z.Def)
		}
	}

	ticksPerCleanup := int64(e.cfg.ChunkCleanupSecs * 1000 / int(e.cfg.TickDuration.Milliseconds()))
	if ticksPerCleanup > 0 && e.CurrentTick%ticksPerCleanup == 0 {
		e.Chunks.Cleanup(now)
	}

	for _, p := range e.playersSnapshotMap() {
		p.endTickBookkeeping()
		p.ResetTickActions()
	}
	for _, n := range e.npcsSnapshotMap() {
		n.endTickBookkeeping()
	}
}

func (e *Engine) publish(diffs []EgressDiff) {
	if e.broadcaster == nil {
		return
	}
	for _, d := range diffs {
		if d.Diff.empty() {
			continue
		}
		e.broadcaster.SendToPlayer(d.AccountID, d.Diff)
	}
}
