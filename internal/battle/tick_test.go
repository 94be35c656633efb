package battle

import (
	"math"
	"testing"

	"github.com/empiresrv/empireserver/internal/hexcoord"
	"github.com/empiresrv/empireserver/internal/items"
)

func testRegistry() *items.Registry {
	return items.NewRegistry([]items.Item{
		{
			Iid:             "RUSHER",
			Kind:            items.Critter,
			Health:          5,
			Speed:           1.5,
			Armour:          0,
			Capture:         map[string]float64{"life": 1},
			SpawnIntervalMs: 0,
		},
		{
			Iid:       "ARROW_TOWER",
			Kind:      items.Structure,
			Damage:    1,
			Range:     2,
			ReloadMs:  100,
			ShotSpeed: 80,
			ShotType:  items.Normal,
		},
	})
}

// S4 Battle determinism.
func buildS4Battle() *BattleState {
	path := []hexcoord.Hex{
		hexcoord.New(0, 0),
		hexcoord.New(1, 0),
		hexcoord.New(2, 0),
		hexcoord.New(3, 0),
	}

	waves := []*Wave{
		{WaveID: "w1", Iid: "RUSHER", Slots: 3, Spawned: 0, NextSpawnMs: 0},
	}

	structures := map[string]*Structure{
		"s1": {
			Sid: "s1", Iid: "ARROW_TOWER",
			Q: 2, R: 0,
			Damage: 1, Range: 2, ReloadMs: 100, ShotSpeed: 80,
			ShotType: items.Normal,
		},
	}

	defenderResources := map[string]float64{"life": 100, "gold": 0}

	return New("battle-s4", "defender", "attack-1", []string{"attacker"}, waves, structures, path, defenderResources, nil, testRegistry(), 42)
}

func runToFinish(b *BattleState, dtMs float64, maxTicks int) int {
	ticks := 0
	for !b.IsFinished && ticks < maxTicks {
		Tick(b, dtMs)
		ticks++
	}
	return ticks
}

func TestBattleDeterminismS4(t *testing.T) {
	b := buildS4Battle()

	ticks := int(math.Ceil(10000.0 / 15.0))
	runToFinish(b, 15, ticks+10000)

	if !b.IsFinished {
		t.Fatalf("expected battle to finish within the tick budget")
	}
	if len(b.Critters) != 0 {
		t.Fatalf("expected no critters remaining, got %d", len(b.Critters))
	}
	if len(b.PendingShots) != 0 {
		t.Fatalf("expected no pending shots, got %d", len(b.PendingShots))
	}

	lifeAfter := b.DefenderResources["life"]
	lifeLost := 100 - lifeAfter
	if lifeLost < 0 || lifeLost > 3 {
		t.Fatalf("unexpected life loss: %v", lifeLost)
	}
}

func TestBattleTickIsPureFunctionOfStateAndDt(t *testing.T) {
	b1 := buildS4Battle()
	b2 := buildS4Battle()

	for i := 0; i < 200; i++ {
		Tick(b1, 15)
		Tick(b2, 15)
	}

	if len(b1.Critters) != len(b2.Critters) {
		t.Fatalf("critter counts diverged: %d vs %d", len(b1.Critters), len(b2.Critters))
	}
	for cid, c1 := range b1.Critters {
		c2, ok := b2.Critters[cid]
		if !ok {
			t.Fatalf("critter %d missing from second run", cid)
		}
		if c1.Health != c2.Health || c1.PathProgress != c2.PathProgress {
			t.Fatalf("critter %d diverged: %+v vs %+v", cid, c1, c2)
		}
	}
	if b1.DefenderResources["life"] != b2.DefenderResources["life"] {
		t.Fatalf("defender life diverged: %v vs %v", b1.DefenderResources["life"], b2.DefenderResources["life"])
	}
}

func TestMinKeepAliveBlocksEarlyFinish(t *testing.T) {
	b := buildS4Battle()
	b.DefenderResources["life"] = 0

	Tick(b, 15)
	if b.IsFinished {
		t.Fatalf("battle must not finish before MinKeepAliveMs even if life<=0")
	}

	runToFinish(b, 15, 2000)
	if !b.IsFinished || b.DefenderWon {
		t.Fatalf("expected the battle to finish as a defender loss once min keep-alive elapses")
	}
}

func TestTowerTargetsMostAdvancedCritterBreakingTiesByCid(t *testing.T) {
	b := buildS4Battle()

	b.Critters[2] = &Critter{Cid: 2, Iid: "RUSHER", Health: 5, MaxHealth: 5, Speed: 1.5, Path: b.Path, PathProgress: 0.5}
	b.Critters[1] = &Critter{Cid: 1, Iid: "RUSHER", Health: 5, MaxHealth: 5, Speed: 1.5, Path: b.Path, PathProgress: 0.5}
	b.Critters[3] = &Critter{Cid: 3, Iid: "RUSHER", Health: 5, MaxHealth: 5, Speed: 1.5, Path: b.Path, PathProgress: 0.1}

	target := selectTarget(b, b.Structures["s1"])
	if target == nil || target.Cid != 1 {
		t.Fatalf("expected tie broken in favour of lowest cid (1), got %+v", target)
	}
}
