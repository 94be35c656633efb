package empire

import (
	"testing"

	"github.com/empiresrv/empireserver/internal/eventbus"
	"github.com/empiresrv/empireserver/internal/items"
)

func testRegistry() *items.Registry {
	return items.NewRegistry([]items.Item{
		{
			Iid:          "INIT",
			Kind:         items.Building,
			Effort:       0,
			Cost:         map[string]float64{},
			Requirements: map[string]struct{}{},
			Effects:      map[string]float64{},
		},
		{
			Iid:          "FIRE_PLACE",
			Kind:         items.Building,
			Effort:       20,
			Cost:         map[string]float64{Gold: 20},
			Requirements: map[string]struct{}{"INIT": {}},
			Effects:      map[string]float64{"warmth": 1},
		},
	})
}

func newTestEngine() *Engine {
	return NewEngine(testRegistry(), eventbus.New(nil), nil)
}

// S1 Build + complete.
func TestBuildItemAndComplete(t *testing.T) {
	en := newTestEngine()
	e := New("u1", "Alice", "INIT", map[string]float64{Gold: 500, Culture: 200}, 10)

	var completions []eventbus.ItemCompletedEvent
	en.bus.Subscribe(eventbus.ItemCompleted, func(ev interface{}) {
		completions = append(completions, ev.(eventbus.ItemCompletedEvent))
	})

	if err := en.BuildItem(e, "FIRE_PLACE"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if e.Resources[Gold] != 480 {
		t.Fatalf("expected gold 480, got %v", e.Resources[Gold])
	}
	if e.Buildings["FIRE_PLACE"] != 20 {
		t.Fatalf("expected remaining 20, got %v", e.Buildings["FIRE_PLACE"])
	}
	if e.BuildQueue != "FIRE_PLACE" {
		t.Fatalf("expected build queue set, got %q", e.BuildQueue)
	}

	for i := 0; i < 21; i++ {
		en.Step(e, 1)
		if i == 19 {
			if e.Buildings["FIRE_PLACE"] != 0 {
				t.Fatalf("expected completion after 20 ticks, remaining=%v", e.Buildings["FIRE_PLACE"])
			}
			if e.BuildQueue != "" {
				t.Fatalf("expected build queue cleared, got %q", e.BuildQueue)
			}
		}
	}

	if len(completions) != 1 {
		t.Fatalf("expected exactly one ItemCompleted, got %d", len(completions))
	}
	if completions[0].Iid != "FIRE_PLACE" || completions[0].EmpireUID != "u1" {
		t.Fatalf("unexpected completion event: %+v", completions[0])
	}
}

// S2 Requirements rejection.
func TestBuildItemRequirementsNotMet(t *testing.T) {
	en := newTestEngine()
	e := New("u1", "Alice", "FIRE_PLACE", map[string]float64{Gold: 500}, 10)
	// Remove the bootstrap entry inserted by New so INIT is genuinely missing.
	delete(e.Buildings, "FIRE_PLACE")

	err := en.BuildItem(e, "FIRE_PLACE")
	if err != ErrRequirementsNotMet {
		t.Fatalf("expected ErrRequirementsNotMet, got %v", err)
	}
	if e.Resources[Gold] != 500 {
		t.Fatalf("gold must be unchanged, got %v", e.Resources[Gold])
	}
	if _, ok := e.Buildings["FIRE_PLACE"]; ok {
		t.Fatalf("buildings must be unchanged")
	}
}

func TestEffectsOnlyFromCompletedItems(t *testing.T) {
	en := newTestEngine()
	e := New("u1", "Alice", "INIT", map[string]float64{Gold: 500}, 10)

	if err := en.BuildItem(e, "FIRE_PLACE"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Effects["warmth"] != 0 {
		t.Fatalf("incomplete item must not contribute effects, got %v", e.Effects["warmth"])
	}

	e.Buildings["FIRE_PLACE"] = 0
	en.RecalculateEffects(e)
	if e.Effects["warmth"] != 1 {
		t.Fatalf("completed item must contribute effects, got %v", e.Effects["warmth"])
	}
}

func TestZeroEffortItemSkipsQueue(t *testing.T) {
	en := newTestEngine()
	e := New("u1", "Alice", "OTHER", map[string]float64{Gold: 500}, 10)

	if err := en.BuildItem(e, "INIT"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.BuildQueue != "" {
		t.Fatalf("zero-effort item must not occupy the build queue, got %q", e.BuildQueue)
	}
	if e.Buildings["INIT"] != 0 {
		t.Fatalf("zero-effort item must complete immediately")
	}
}

func TestGoldGenerationFormula(t *testing.T) {
	en := newTestEngine()
	e := New("u1", "Alice", "INIT", map[string]float64{Gold: 0}, 10)
	e.Citizens[Merchant] = 3

	before := e.Resources[Gold]
	en.Step(e, 2.0)
	after := e.Resources[Gold]

	expectedRate := (en.config.BaseGoldRate + e.Effects["gold_offset"]) * (1 + 3*en.config.CitizenEffect + e.Effects["gold_modifier"])
	expected := expectedRate * 2.0

	diff := (after - before) - expected
	if diff < -1e-4 || diff > 1e-4 {
		t.Fatalf("gold generation mismatch: got delta %v, expected %v", after-before, expected)
	}
}
