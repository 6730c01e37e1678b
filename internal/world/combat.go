package world

import "math/rand"

// CombatFormula computes hit damage given attacker/defender effective
// stats. The default is uniform_int(0,3); this is an
// extension point (open question #2) rather than a fixed constant so a
// future balance pass can swap it without touching the attack pipeline.
type CombatFormula func(rng *rand.Rand, attackerStrength, defenderDefense int) int

// UniformDamage is the spec-literal default damage roll: a flat uniform
// integer between 0 and 3 inclusive, ignoring stat deltas entirely.
func UniformDamage(rng *rand.Rand, attackerStrength, defenderDefense int) int {
	return rng.Intn(4)
}

// AttackResult reports what happened when one character swung at another.
type AttackResult struct {
	Damage      int
	Lethal      bool
	XPAwarded   SkillKind
	XPAmount    int
}

// Attack resolves one attacker-vs-defender swing. It enforces cardinal
// adjacency and cooldown, applies the combat formula, and on a lethal hit
// marks the defender dead and schedules its respawn. It does not grant XP
// or roll drops itself — callers (the tick's combat phases) do that after
// checking the returned result, so kill-credit/drop logic can see the full
// attacker roster for a contested kill.
func Attack(reg *ItemRegistry, formula CombatFormula, rng *rand.Rand,
	attacker, defender *CharacterState, attackerEquip func(string) int,
	currentTick int64, respawnDelayTicks int64) (*AttackResult, error) {

	if !attacker.IsAlive() {
		return nil, ErrDead
	}
	if !defender.IsAlive() {
		return nil, ErrDead
	}
	if !attacker.Position().AdjacentCardinal(defender.Position()) {
		return nil, ErrNotAdjacent
	}
	if attacker.OnAttackCooldown(currentTick) {
		return nil, ErrOnCooldown
	}

	attacker.RecordAttack(currentTick)

	strength := attacker.Strength.CurrentValue
	if attackerEquip != nil {
		strength += attackerEquip("damage_bonus")
	}
	defense := defender.Defense.CurrentValue

	dmg := formula(rng, strength, defense)
	lethal := defender.TakeDamageFrom(dmg, attackerKey(attacker.Kind, attacker.ID))
	if lethal {
		defender.Kill(currentTick, respawnDelayTicks)
	}

	return &AttackResult{Damage: dmg, Lethal: lethal}, nil
}

// XPForStyle maps a player's chosen attack style to the skill that trains on
// a successful hit.
func XPForStyle(style AttackStyle) SkillKind {
	switch style {
	case StyleAccurate:
		return SkillAttack
	case StyleAggressive:
		return SkillStrength
	case StyleDefensive:
		return SkillDefense
	default:
		return SkillAttack
	}
}

// damageXP is the XP granted per point of damage dealt, a simple
// proportional award rather than a fixed per-hit constant.
const damageXP = 4

func XPForDamage(dmg int) int {
	return dmg * damageXP
}
