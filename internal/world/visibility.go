package world

import "time"

// ActorSnapshotUpdate carries a dirty-snapshot diff for an actor that stayed
// visible across the tick but changed: moved, took damage, died, or
// retargeted. Separate from NewActors/RemovedActors, which only cover
// entering/leaving visibility.
type ActorSnapshotUpdate struct {
	Ref      actorRef
	Snapshot CharacterSnapshot
}

// VisibilityDiff is the set of changes a player's client needs to stay in
// sync after one tick: entities/items that newly entered view, ones that
// left, and snapshot updates for ones that stayed but changed.
type VisibilityDiff struct {
	NewActors     []actorRef
	RemovedActors []actorRef
	UpdatedActors []ActorSnapshotUpdate
	NewItems      []int
	RemovedItems  []int
}

func (d VisibilityDiff) empty() bool {
	return len(d.NewActors) == 0 && len(d.RemovedActors) == 0 && len(d.UpdatedActors) == 0 &&
		len(d.NewItems) == 0 && len(d.RemovedItems) == 0
}

// ComputeVisibleChunks returns the chunk square centered on the player's
// current chunk (default radius from config).
func ComputeVisibleChunks(playerPos Position, radius int) []ChunkKey {
	center := WorldToChunk(playerPos.X, playerPos.Y)
	return VisibilitySquare(center, radius)
}

// VisibilityEngine recomputes each player's visible actor/item sets once
// per tick and reports the delta, so egress only sends what changed instead
// of a full-world snapshot.
type VisibilityEngine struct {
	radius int
}

func NewVisibilityEngine(radius int) *VisibilityEngine {
	return &VisibilityEngine{radius: radius}
}

// Recompute updates p's VisibleChunks/VisibleActors/VisibleItems in place
// and returns the diff against the previous tick's sets. Zone activation is
// driven from here: a chunk newly entering the visibility square activates
// every zone definition overlapping it, and a chunk leaving the square
// releases the player's residency on those same zones.
func (e *VisibilityEngine) Recompute(p *Player, chunks *ChunkStore, zones *ZoneRegistry, players map[int]*Player, npcs map[int]*Npc, items *GroundItemStore, currentTick int64, now time.Time) VisibilityDiff {
	newChunkSet := make(map[ChunkKey]struct{})
	for _, k := range ComputeVisibleChunks(p.Position(), e.radius) {
		newChunkSet[k] = struct{}{}
	}

	newActorSet := make(map[actorRef]struct{})
	newItemSet := make(map[int]struct{})
	actorByRef := make(map[actorRef]*CharacterState)

	for ck := range newChunkSet {
		for _, other := range players {
			if other.AccountID == p.AccountID {
				continue
			}
			if WorldToChunk(other.Position().X, other.Position().Y) == ck {
				ref := actorRef{ID: other.AccountID, Kind: ActorPlayer}
				newActorSet[ref] = struct{}{}
				actorByRef[ref] = &other.CharacterState
			}
		}
		for _, n := range npcs {
			if WorldToChunk(n.Position().X, n.Position().Y) == ck {
				ref := actorRef{ID: n.ID, Kind: ActorNpc}
				newActorSet[ref] = struct{}{}
				actorByRef[ref] = &n.CharacterState
			}
		}
		for _, gi := range items.InChunk(ck) {
			if gi.VisibleTo(p.AccountID, currentTick) {
				newItemSet[gi.ID] = struct{}{}
			}
		}
	}

	diff := VisibilityDiff{}
	for ref := range newActorSet {
		if _, had := p.VisibleActors[ref]; !had {
			diff.NewActors = append(diff.NewActors, ref)
		} else if actor := actorByRef[ref]; actor != nil && actor.IsDirty {
			diff.UpdatedActors = append(diff.UpdatedActors, ActorSnapshotUpdate{Ref: ref, Snapshot: actor.Snapshot()})
		}
	}
	for ref := range p.VisibleActors {
		if _, still := newActorSet[ref]; !still {
			diff.RemovedActors = append(diff.RemovedActors, ref)
		}
	}
	for id := range newItemSet {
		if _, had := p.VisibleItems[id]; !had {
			diff.NewItems = append(diff.NewItems, id)
		}
	}
	for id := range p.VisibleItems {
		if _, still := newItemSet[id]; !still {
			diff.RemovedItems = append(diff.RemovedItems, id)
		}
	}

	oldChunks := p.VisibleChunks
	p.VisibleChunks = newChunkSet
	p.VisibleActors = newActorSet
	p.VisibleItems = newItemSet

	for ck := range newChunkSet {
		if _, had := oldChunks[ck]; !had {
			if c := chunks.EnsureLoaded(ck, now); c != nil {
				c.mu.Lock()
				c.PlayersViewingChunk[p.AccountID] = struct{}{}
				c.mu.Unlock()
			}
			for _, zd := range chunks.ZonesOverlapping(ck) {
				zones.Activate(zd, p.AccountID)
				chunks.markZoneActive(zd, now)
			}
		}
	}
	for ck := range oldChunks {
		if _, still := newChunkSet[ck]; !still {
			if c, ok := chunks.Get(ck); ok {
				c.mu.Lock()
				delete(c.PlayersViewingChunk, p.AccountID)
				c.mu.Unlock()
			}
			for _, zd := range chunks.ZonesOverlapping(ck) {
				zones.Leave(zd.Key(), p.AccountID, now)
			}
		}
	}

	return diff
}
