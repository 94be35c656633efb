package attack

import (
	"testing"

	"github.com/empiresrv/empireserver/internal/eventbus"
)

// zeroEffects is an EffectSource returning 0 for every empire/key pair,
// i.e. no travel or siege modifiers.
type zeroEffects struct{}

func (zeroEffects) Effect(uid, key string) float64 { return 0 }

// S3 Travel -> siege -> battle, with base_travel=100s, base_siege=30s.
func TestAttackLifecycleS3(t *testing.T) {
	en := NewEngine(zeroEffects{}, eventbus.New(nil), nil)

	a := en.StartAttack("atk-1", "attacker", "defender", "army-1")
	if a.Phase != Travelling {
		t.Fatalf("expected TRAVELLING, got %v", a.Phase)
	}
	if a.ETASeconds != 100 {
		t.Fatalf("expected eta=100, got %v", a.ETASeconds)
	}

	entering := en.StepAll(100)
	if len(entering) != 0 {
		t.Fatalf("expected no battles to start yet, got %d", len(entering))
	}
	got, _ := en.Get("atk-1")
	if got.Phase != InSiege {
		t.Fatalf("expected IN_SIEGE, got %v", got.Phase)
	}
	if got.SiegeRemaining != 30 {
		t.Fatalf("expected siege_remaining=30, got %v", got.SiegeRemaining)
	}

	entering = en.StepAll(30)
	if len(entering) != 1 {
		t.Fatalf("expected exactly one attack entering battle, got %d", len(entering))
	}
	if entering[0].AttackID != "atk-1" {
		t.Fatalf("unexpected attack entering battle: %+v", entering[0])
	}
	if entering[0].Phase != InBattle {
		t.Fatalf("expected IN_BATTLE, got %v", entering[0].Phase)
	}

	entering = en.StepAll(1)
	if len(entering) != 0 {
		t.Fatalf("expected the attack not to be reported again, got %d", len(entering))
	}
}

// Two attacks racing the same defender must never hold its siege slot at
// the same time; the loser waits at eta=0 until the winner's siege ends,
// then takes the slot on that very tick.
func TestSiegeSlotSerialisesPerDefender(t *testing.T) {
	en := NewEngine(zeroEffects{}, eventbus.New(nil), nil)

	en.StartAttack("atk-1", "a1", "defender", "army-1")
	en.StartAttack("atk-2", "a2", "defender", "army-2")

	entering := en.StepAll(100)
	if len(entering) != 0 {
		t.Fatalf("expected no battles to start yet, got %d", len(entering))
	}

	first, _ := en.Get("atk-1")
	second, _ := en.Get("atk-2")
	if first.Phase != InSiege {
		t.Fatalf("expected atk-1 (lower id, processed first) to take the siege slot, got %v", first.Phase)
	}
	if second.Phase != Travelling || second.ETASeconds != 0 {
		t.Fatalf("expected atk-2 to wait TRAVELLING at eta=0, got phase=%v eta=%v", second.Phase, second.ETASeconds)
	}

	entering = en.StepAll(30)
	if len(entering) != 1 || entering[0].AttackID != "atk-1" {
		t.Fatalf("expected only atk-1 to enter battle, got %+v", entering)
	}
	if second.Phase != InSiege {
		t.Fatalf("expected atk-2 to take the freed slot on the same tick, got %v", second.Phase)
	}

	entering = en.StepAll(30)
	if len(entering) != 1 || entering[0].AttackID != "atk-2" {
		t.Fatalf("expected atk-2 to enter battle next, got %+v", entering)
	}
}

func TestEspionageAttackIsFlagged(t *testing.T) {
	en := NewEngine(zeroEffects{}, eventbus.New(nil), nil)
	a := en.StartEspionageAttack("spy-1", "attacker", "defender", "spy-army")
	if !a.IsEspionage {
		t.Fatalf("expected espionage flag to be set")
	}
}

func TestAttackPhaseChangedEventsFire(t *testing.T) {
	bus := eventbus.New(nil)
	en := NewEngine(zeroEffects{}, bus, nil)

	var transitions []string
	bus.Subscribe(eventbus.AttackPhaseChanged, func(ev interface{}) {
		e := ev.(eventbus.AttackPhaseChangedEvent)
		transitions = append(transitions, e.From+"->"+e.To)
	})

	en.StartAttack("atk-1", "attacker", "defender", "army-1")
	en.StepAll(100)
	en.StepAll(30)

	if len(transitions) != 2 {
		t.Fatalf("expected 2 phase transitions, got %d: %v", len(transitions), transitions)
	}
	if transitions[0] != "TRAVELLING->IN_SIEGE" || transitions[1] != "IN_SIEGE->IN_BATTLE" {
		t.Fatalf("unexpected transition sequence: %v", transitions)
	}
}
