package ai

import (
	"testing"

	"github.com/empiresrv/empireserver/internal/attack"
	"github.com/empiresrv/empireserver/internal/eventbus"
	"github.com/empiresrv/empireserver/internal/items"
)

type zeroEffects struct{}

func (zeroEffects) Effect(uid, key string) float64 { return 0 }

func newTestEngine(bus *eventbus.Bus) *Engine {
	registry := items.NewRegistry(nil)
	attacks := attack.NewEngine(zeroEffects{}, bus, nil)
	return NewEngine(registry, attacks, bus, nil, nil)
}

// S6 AI adaptation.
func TestAdaptationConvergesWithoutUndershoot(t *testing.T) {
	bus := eventbus.New(nil)
	en := newTestEngine(bus)

	if en.PowerMultiplier() != 1.0 {
		t.Fatalf("expected initial power_multiplier=1.0, got %v", en.PowerMultiplier())
	}

	feedWins := func(n int) {
		for i := 0; i < n; i++ {
			en.recordOutcome(true)
		}
	}

	feedWins(10)
	if diff := en.PowerMultiplier() - 0.92; diff < -1e-9 || diff > 1e-9 {
		t.Fatalf("expected power_multiplier=0.92 after 10 wins, got %v", en.PowerMultiplier())
	}

	feedWins(10)
	if diff := en.PowerMultiplier() - 0.84; diff < -1e-9 || diff > 1e-9 {
		t.Fatalf("expected power_multiplier=0.84 after 20 wins, got %v", en.PowerMultiplier())
	}

	for i := 0; i < 200; i++ {
		en.recordOutcome(true)
	}
	if en.PowerMultiplier() < 0.2 {
		t.Fatalf("power_multiplier must never undershoot the floor, got %v", en.PowerMultiplier())
	}
	if en.PowerMultiplier() != 0.2 {
		t.Fatalf("expected convergence to the floor 0.2, got %v", en.PowerMultiplier())
	}
}

func TestPlayerPowerFloorsAtMinimum(t *testing.T) {
	registry := items.NewRegistry(nil)
	config := parseConfiguration()

	power := PlayerPower(fakeDefender{}, registry, config)
	if power != config.MinPlayerPower {
		t.Fatalf("expected new-player power to floor at %v, got %v", config.MinPlayerPower, power)
	}
}

type fakeDefender struct{}

func (fakeDefender) UID() string                        { return "new-player" }
func (fakeDefender) CompletedBuildings() []string        { return nil }
func (fakeDefender) CompletedKnowledge() []string         { return nil }
func (fakeDefender) Culture() float64                     { return 0 }
func (fakeDefender) StructureCount() int                  { return 0 }
func (fakeDefender) CitizenCount() int                    { return 0 }
func (fakeDefender) CompletedSet() map[string]struct{}    { return map[string]struct{}{} }

func TestSynthesizeArmyRespectsSlotBounds(t *testing.T) {
	config := parseConfiguration()
	available := []items.Item{
		{Iid: "FAST", Kind: items.Critter, Health: 5, Speed: 2, Armour: 0},
		{Iid: "TANK", Kind: items.Critter, Health: 50, Speed: 0.1, Armour: 3},
		{Iid: "GRUNT", Kind: items.Critter, Health: 10, Speed: 0.1, Armour: 0},
	}

	army := SynthesizeArmy(1_000_000, available, config)
	if len(army.Waves) != config.WaveCount {
		t.Fatalf("expected %d waves, got %d", config.WaveCount, len(army.Waves))
	}
	for _, w := range army.Waves {
		if w.Slots < config.MinSlots || w.Slots > config.MaxSlots {
			t.Fatalf("wave slots out of bounds: %+v", w)
		}
	}
}

func TestScriptedOverrideTakesLastFullyTriggeredDefinition(t *testing.T) {
	defs := []ScriptedWaveDef{
		{ID: "early", TriggerItems: []string{"A"}, Waves: []WaveSpec{{Iid: "X", Slots: 1}}},
		{ID: "late", TriggerItems: []string{"A", "B"}, Waves: []WaveSpec{{Iid: "Y", Slots: 2}}},
	}

	completed := map[string]struct{}{"A": {}, "B": {}}
	got, ok := SelectOverride(defs, completed)
	if !ok || got.ID != "late" {
		t.Fatalf("expected the 'late' definition to win, got %+v (ok=%v)", got, ok)
	}
}
