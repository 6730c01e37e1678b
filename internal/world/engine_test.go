package world

import (
	"math/rand"
	"testing"
	"time"
)

type captureBroadcaster struct {
	sent map[int][]any
}

func newCaptureBroadcaster() *captureBroadcaster {
	return &captureBroadcaster{sent: make(map[int][]any)}
}

func (b *captureBroadcaster) SendToPlayer(accountID int, payload any) {
	b.sent[accountID] = append(b.sent[accountID], payload)
}

func testEngine(t *testing.T, broadcaster Broadcaster) *Engine {
	t.Helper()
	dir := t.TempDir()
	chunks := NewChunkStore(dir, true, 30*time.Second, 30*time.Second, testLog{})
	cfg := EngineConfig{
		TickDuration:         500 * time.Millisecond,
		VisionRadiusChunks:   1,
		SpawnX:               0,
		SpawnY:               0,
		ZoneWarmToColdSecs:   30,
		ChunkCleanupSecs:     30,
		CooldownSweepSecs:    30,
		PlayerAttackCooldown: 4,
		PlayerRespawnTicks:   10,
		RegenTicks:           1,
	}
	return NewEngine(cfg, chunks, DefaultItemRegistry(), DefaultDropTableRegistry(), DefaultNpcTypeRegistry(), testLog{}, broadcaster)
}

func TestEngineAddGetRemovePlayer(t *testing.T) {
	e := testEngine(t, nil)
	p := NewPlayer(1, "alice", Position{0, 0})
	e.AddPlayer(p)

	got, ok := e.GetPlayer(1)
	if !ok || got != p {
		t.Fatal("expected to retrieve the added player")
	}
	e.RemovePlayer(1)
	if _, ok := e.GetPlayer(1); ok {
		t.Error("expected player gone after RemovePlayer")
	}
}

func TestEngineSpawnAndRemoveNpc(t *testing.T) {
	e := testEngine(t, nil)
	n := e.SpawnNpc(1, "zone", Position{0, 0})
	if n == nil {
		t.Fatal("expected npc spawned for a known type id")
	}
	if unk := e.SpawnNpc(999, "zone", Position{0, 0}); unk != nil {
		t.Error("expected nil for unknown npc type id")
	}
	e.RemoveNpc(n.ID)
	if _, ok := e.npcByID(n.ID); ok {
		t.Error("expected npc removed")
	}
}

func TestEngineTickDrainsQueuedMoveIntent(t *testing.T) {
	e := testEngine(t, nil)
	p := NewPlayer(1, "alice", Position{0, 0})
	e.AddPlayer(p)

	e.EnqueueIntent(Intent{AccountID: 1, Kind: IntentMove, MoveX: 1, MoveY: 0})
	e.Tick(time.Now())

	if got := p.Position(); got != (Position{1, 0}) {
		t.Errorf("Position after tick = %v, want (1,0)", got)
	}
}

func TestEngineTickStepsAlongPathTowardNonAdjacentDestination(t *testing.T) {
	e := testEngine(t, nil)
	p := NewPlayer(1, "alice", Position{0, 0})
	e.AddPlayer(p)

	e.EnqueueIntent(Intent{AccountID: 1, Kind: IntentMove, MoveX: 5, MoveY: 5})
	e.Tick(time.Now())

	if got := p.Position(); got == (Position{0, 0}) || got == (Position{5, 5}) {
		t.Errorf("expected one path tile consumed this tick, position = %v", got)
	}
	if !p.HasPath() {
		t.Error("expected the remainder of the path still queued after one tick")
	}

	for i := 0; i < 10 && p.Position() != (Position{5, 5}); i++ {
		e.Tick(time.Now())
	}
	if got := p.Position(); got != (Position{5, 5}) {
		t.Errorf("expected destination reached after consuming the full path, got %v", got)
	}
}

func TestEngineTickCombatKillsAndClearsTarget(t *testing.T) {
	e := testEngine(t, nil)
	e.CombatFormula = func(rng *rand.Rand, str, def int) int { return 100 } // always lethal

	p := NewPlayer(1, "alice", Position{0, 0})
	e.AddPlayer(p)
	n := e.SpawnNpc(1, "zone", Position{1, 0}) // rat, 3 hp
	p.SetTarget(n.ID, ActorNpc)
	p.AttackCooldown = 0 // avoid the freshly-constructed cooldown blocking tick 1's attack

	e.Tick(time.Now())

	if _, ok := e.npcByID(n.ID); ok {
		t.Error("expected npc removed from the engine once killed")
	}
	if _, _, has := p.CurrentTarget(); has {
		t.Error("expected attacker's target cleared once the npc dies")
	}
}

func TestEngineTickNpcRetaliatesWhenAttacked(t *testing.T) {
	e := testEngine(t, nil)
	e.CombatFormula = func(rng *rand.Rand, str, def int) int { return 1 } // non-lethal chip damage

	p := NewPlayer(1, "alice", Position{0, 0})
	e.AddPlayer(p)
	n := e.SpawnNpc(2, "zone", Position{1, 0}) // goblin, 8 hp
	p.SetTarget(n.ID, ActorNpc)
	p.AttackCooldown = 0

	e.Tick(time.Now())

	id, kind, has := n.CurrentTarget()
	if !has || id != p.AccountID || kind != ActorPlayer {
		t.Errorf("expected npc to retaliate against its attacker, got (%d,%v,%v)", id, kind, has)
	}
}

func TestEngineTickEgressDiffsReachBroadcaster(t *testing.T) {
	b := newCaptureBroadcaster()
	e := testEngine(t, b)
	p := NewPlayer(1, "alice", Position{0, 0})
	e.AddPlayer(p)
	other := NewPlayer(2, "bob", Position{1, 0})
	e.AddPlayer(other)

	e.Tick(time.Now())

	if len(b.sent[1]) == 0 {
		t.Error("expected a visibility diff broadcast to player 1 once player 2 comes into view")
	}
}
