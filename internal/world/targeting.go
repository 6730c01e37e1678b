package world

// resolveActor looks up the CharacterState behind an (id, kind) pair,
// regardless of whether it names a player or an npc, so combat/AI/intent
// code can manipulate targeting without switching on kind at every call
// site.
func (e *Engine) resolveActor(id int, kind ActorKind) (*CharacterState, bool) {
	switch kind {
	case ActorPlayer:
		p, ok := e.GetPlayer(id)
		if !ok {
			return nil, false
		}
		return &p.CharacterState, true
	case ActorNpc:
		n, ok := e.GetNpc(id)
		if !ok {
			return nil, false
		}
		return &n.CharacterState, true
	default:
		return nil, false
	}
}

// SetActorTarget points actor at (targetID, targetKind), maintaining the
// target's reverse targeted_by index: the old target (if any) loses the
// reference and the new one gains it.
func (e *Engine) SetActorTarget(actor *CharacterState, targetID int, targetKind ActorKind) {
	if oldID, oldKind, had := actor.CurrentTarget(); had {
		if old, ok := e.resolveActor(oldID, oldKind); ok {
			old.removeTargetedBy(actor)
		}
	}
	actor.SetTarget(targetID, targetKind)
	if target, ok := e.resolveActor(targetID, targetKind); ok {
		target.addTargetedBy(actor)
	}
}

// ClearActorTarget drops actor's forward target reference and releases it
// from that target's targeted_by set.
func (e *Engine) ClearActorTarget(actor *CharacterState) {
	if oldID, oldKind, had := actor.CurrentTarget(); had {
		if old, ok := e.resolveActor(oldID, oldKind); ok {
			old.removeTargetedBy(actor)
		}
	}
	actor.ClearTarget()
}

// releaseTargetedBy implements on_death's "release from all targeted_by
// entries": every actor that had victim targeted has its forward reference
// cleared, so it falls back to idle/re-acquire instead of attacking a
// corpse.
func (e *Engine) releaseTargetedBy(victim *CharacterState) {
	for _, ref := range victim.targetedBySnapshot() {
		if attacker, ok := e.resolveActor(ref.ID, ref.Kind); ok {
			attacker.ClearTarget()
		}
	}
}
