package world

import (
	"math"
	"math/rand"

	"github.com/lucas/tileworld/internal/pathfind"
)

// euclidean returns the straight-line distance between two positions, used
// for aggro-range acquisition.
func euclidean(a, b Position) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// setTargetFunc and clearTargetFunc let StepNpc update an actor's target
// through the engine's targeted_by bookkeeping (see targeting.go) without
// StepNpc itself depending on *Engine, keeping it unit-testable with bare
// CharacterStates.
type setTargetFunc func(actor *CharacterState, targetID int, targetKind ActorKind)
type clearTargetFunc func(actor *CharacterState)

// StepNpc advances one NPC's AI state machine by one tick: idle NPCs scan
// for a player inside both their aggro range and their home zone and begin
// pursuit; pursuing/attacking NPCs revert to idle the moment the zone no
// longer contains them, regardless of target state.
func StepNpc(n *Npc, zoneDef ZoneDef, players map[int]*Player, typeDef NpcTypeDef, grid pathfind.WalkabilityProvider, rng *rand.Rand, setTarget setTargetFunc, clearTarget clearTargetFunc) {
	if !n.IsAlive() {
		return
	}

	pos := n.Position()
	if !zoneDef.Contains(pos.X, pos.Y) {
		n.SetAIState(AIIdle)
		clearTarget(&n.CharacterState)
		return
	}

	switch n.GetAIState() {
	case AIIdle:
		target := acquireTarget(pos, players, typeDef, zoneDef)
		if target != nil {
			setTarget(&n.CharacterState, target.AccountID, ActorPlayer)
			n.SetAIState(AIPursuing)
		} else {
			idleRoam(n, zoneDef, grid, rng)
		}

	case AIPursuing, AIAttacking:
		targetID, _, has := n.CurrentTarget()
		if !has {
			n.SetAIState(AIIdle)
			return
		}
		target, ok := players[targetID]
		if !ok || !target.IsAlive() {
			clearTarget(&n.CharacterState)
			n.SetAIState(AIIdle)
			return
		}
		tpos := target.Position()
		if !zoneDef.Contains(tpos.X, tpos.Y) {
			clearTarget(&n.CharacterState)
			n.SetAIState(AIIdle)
			return
		}
		if pos.AdjacentCardinal(tpos) {
			n.SetAIState(AIAttacking)
			return
		}
		n.SetAIState(AIPursuing)
		next, moved := pathfind.GreedyStep(
			pathfind.Point{X: pos.X, Y: pos.Y},
			pathfind.Point{X: tpos.X, Y: tpos.Y},
			grid,
		)
		if moved {
			n.SetPosition(Position{X: next.X, Y: next.Y})
		}
	}
}

// acquireTarget returns the nearest live player within both aggro range and
// the zone rectangle, or nil. Only aggressive NPC types initiate; passive
// types rely entirely on retaliation (handled in the combat phase).
func acquireTarget(npcPos Position, players map[int]*Player, typeDef NpcTypeDef, zoneDef ZoneDef) *Player {
	if !typeDef.Aggressive {
		return nil
	}
	var best *Player
	bestDist := math.MaxFloat64
	for _, p := range players {
		if !p.IsAlive() {
			continue
		}
		ppos := p.Position()
		if !zoneDef.Contains(ppos.X, ppos.Y) {
			continue
		}
		d := euclidean(npcPos, ppos)
		if d <= float64(typeDef.AggroRange) && d < bestDist {
			best = p
			bestDist = d
		}
	}
	return best
}

// idleRoam has a small chance per tick to take one random cardinal step
// within the zone rectangle, keeping idle NPCs visually alive without any
// pathfinding cost.
func idleRoam(n *Npc, zoneDef ZoneDef, grid pathfind.WalkabilityProvider, rng *rand.Rand) {
	const roamChance = 10 // 1 in 10 ticks
	if rng.Intn(roamChance) != 0 {
		return
	}
	pos := n.Position()
	offsets := []Position{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}
	dir := offsets[rng.Intn(len(offsets))]
	next := Position{X: pos.X + dir.X, Y: pos.Y + dir.Y}
	if !zoneDef.Contains(next.X, next.Y) {
		return
	}
	if !grid.IsWalkable(pathfind.Point{X: next.X, Y: next.Y}) {
		return
	}
	n.SetPosition(next)
}
