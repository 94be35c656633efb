package attack

// Phase :
// The attack state machine's phase. Progresses monotonically through
// the sequence TRAVELLING -> IN_SIEGE -> IN_BATTLE -> FINISHED; an
// Attack never moves backwards.
type Phase string

// Defines the attack phases.
const (
	Travelling Phase = "TRAVELLING"
	InSiege    Phase = "IN_SIEGE"
	InBattle   Phase = "IN_BATTLE"
	Finished   Phase = "FINISHED"
)

// Attack :
// A directed intent from an attacker to a defender, moving through
// travel -> siege -> battle -> finished. One active Attack per
// (attacker, defender) pair is not enforced by this package; only the
// "at most one IN_SIEGE attack per defender" rule of spec.md §4.5 is.
//
// The `ETASeconds` counts down to zero during TRAVELLING; `InitialETA`
// is kept alongside it purely so a client-facing progress bar can
// compute `1 - eta/initial`.
//
// The `SiegeRemaining`/`InitialSiege` play the same role during
// IN_SIEGE.
//
// The `BattleStartedDelivered` is the "persistent battle_started flag"
// spec.md §4.5 requires: it ensures that an attack rehydrated from a
// snapshot already in IN_BATTLE yields `BattleStartRequested` from
// `StepAll` exactly once after a restart, never again on subsequent
// ticks.
type Attack struct {
	AttackID    string
	AttackerUID string
	DefenderUID string
	ArmyAid     string

	Phase Phase

	ETASeconds float64
	InitialETA float64

	SiegeRemaining float64
	InitialSiege   float64

	// IsEspionage marks an attack synthesized from spy_options: it
	// bypasses the battle runtime entirely (see SPEC_FULL.md's
	// supplemented spy-army feature) and resolves at the end of siege
	// by revealing defender summary data instead of spawning a battle.
	IsEspionage bool

	BattleStartedDelivered bool
}
