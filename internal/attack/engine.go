package attack

import (
	"fmt"
	"math"
	"sort"

	"github.com/empiresrv/empireserver/internal/eventbus"
	"github.com/empiresrv/empireserver/pkg/logger"
)

// EffectSource :
// The narrow empire dependency this package needs: the value of a named
// aggregated effect for a given empire uid (e.g.
// "travel_time_offset"/"siege_time_offset"). Implemented by
// internal/empire's Empire lookup in the world loop wiring; kept as an
// interface here so the attack engine never imports the empire package
// (empires own attacks' lifecycle effects, not the other way around).
type EffectSource interface {
	Effect(uid, key string) float64
}

// Engine :
// Owns every active Attack (spec.md §5's "the attack list is owned by
// C5" rule). This type has no lock of its own: the world loop only
// ever calls into it from the single goroutine driving each tick, and
// request handlers that touch it do so under the same per-empire
// locking the world loop uses (internal/locker), so serialisation is
// the caller's responsibility, not this package's.
type Engine struct {
	config configuration
	bus    *eventbus.Bus
	log    logger.Logger
	source EffectSource

	attacks map[string]*Attack

	// siegeSlot maps a defender uid to the attack_id currently occupying
	// its single siege slot, enforcing "at most one IN_SIEGE attack per
	// defender" (spec.md §4.5).
	siegeSlot map[string]string
}

// NewEngine :
// Builds an attack engine bound to the given effect source and bus.
func NewEngine(source EffectSource, bus *eventbus.Bus, log logger.Logger) *Engine {
	return &Engine{
		config:    parseConfiguration(),
		bus:       bus,
		log:       log,
		source:    source,
		attacks:   make(map[string]*Attack),
		siegeSlot: make(map[string]string),
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// StartAttack :
// Registers a new Attack from attacker to defender, computing its
// initial travel time as `max(1, base_travel + attacker.travel_time_offset)`.
// Negative offsets legally accelerate travel.
func (en *Engine) StartAttack(attackID, attackerUID, defenderUID, armyAid string) *Attack {
	offset := en.source.Effect(attackerUID, "travel_time_offset")
	eta := maxf(1, en.config.BaseTravelSeconds+offset)

	a := &Attack{
		AttackID:    attackID,
		AttackerUID: attackerUID,
		DefenderUID: defenderUID,
		ArmyAid:     armyAid,
		Phase:       Travelling,
		ETASeconds:  eta,
		InitialETA:  eta,
	}

	en.attacks[attackID] = a
	return a
}

// StartAIAttack :
// Identical to StartAttack. The resulting Attack is not marked as
// AI-dispatched (the AI package tracks its own pending map); this is a
// distinct entry point only so the AI's call site reads as an AI attack.
func (en *Engine) StartAIAttack(attackID, aiUID, defenderUID, armyAid string) *Attack {
	return en.StartAttack(attackID, aiUID, defenderUID, armyAid)
}

// StartEspionageAttack :
// Registers a spy-army Attack: identical travel and siege handling, but
// flagged `IsEspionage` so that, once its siege ends and it enters
// IN_BATTLE, the world loop finishes it through ResolveEspionage instead
// of instantiating a battle.
func (en *Engine) StartEspionageAttack(attackID, attackerUID, defenderUID, armyAid string) *Attack {
	a := en.StartAttack(attackID, attackerUID, defenderUID, armyAid)
	a.IsEspionage = true
	return a
}

// Get :
// Returns the attack with the given id, if still tracked.
func (en *Engine) Get(attackID string) (*Attack, bool) {
	a, ok := en.attacks[attackID]
	return a, ok
}

// All :
// Returns every tracked attack, sorted by id. Used by pkg/snapshot to
// persist the full attack list.
func (en *Engine) All() []*Attack {
	ids := make([]string, 0, len(en.attacks))
	for id := range en.attacks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*Attack, 0, len(ids))
	for _, id := range ids {
		out = append(out, en.attacks[id])
	}
	return out
}

// Restore :
// Rehydrates a single attack from a persisted snapshot, reinstating the
// defender's siege slot if it was IN_SIEGE. Does not itself re-deliver
// BattleStartRequested for an IN_BATTLE attack; that happens naturally
// on the first post-restart StepAll, gated by BattleStartedDelivered.
func (en *Engine) Restore(a *Attack) {
	en.attacks[a.AttackID] = a
	if a.Phase == InSiege {
		en.siegeSlot[a.DefenderUID] = a.AttackID
	}
}

// SiegeAttackFor :
// Returns the attack_id currently occupying the defender's siege slot,
// if any. Used by `end_siege{}`, which names no attack_id and instead
// targets whichever attack is besieging the caller.
func (en *Engine) SiegeAttackFor(defenderUID string) (string, bool) {
	id, ok := en.siegeSlot[defenderUID]
	return id, ok
}

// Outgoing / Incoming :
// Return every tracked attack whose attacker/defender (respectively) is
// `uid`, sorted by attack id. Used by `military_response`'s
// attacks_outgoing/attacks_incoming fields.
func (en *Engine) Outgoing(uid string) []*Attack {
	return en.filterBy(func(a *Attack) bool { return a.AttackerUID == uid })
}

func (en *Engine) Incoming(uid string) []*Attack {
	return en.filterBy(func(a *Attack) bool { return a.DefenderUID == uid })
}

func (en *Engine) filterBy(keep func(*Attack) bool) []*Attack {
	ids := make([]string, 0, len(en.attacks))
	for id := range en.attacks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*Attack, 0)
	for _, id := range ids {
		if a := en.attacks[id]; keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// EndSiege :
// Used by a defender to voluntarily end an attacker's siege early: it
// zeroes the siege timer, so on the next StepAll the attack enters
// IN_BATTLE and the siege slot frees for the next TRAVELLING attack whose
// ETA has already reached zero.
func (en *Engine) EndSiege(attackID string) error {
	a, ok := en.attacks[attackID]
	if !ok {
		return fmt.Errorf("unknown attack %q", attackID)
	}
	if a.Phase != InSiege {
		return fmt.Errorf("attack %q is not in siege", attackID)
	}

	a.SiegeRemaining = 0
	return nil
}

// emitPhaseChange :
func (en *Engine) emitPhaseChange(a *Attack, from Phase) {
	if en.bus == nil {
		return
	}
	en.bus.Emit(eventbus.AttackPhaseChanged, eventbus.AttackPhaseChangedEvent{
		AttackID: a.AttackID,
		From:     string(from),
		To:       string(a.Phase),
	})
}

// StepAll :
// Advances every tracked attack by `dtSeconds` and returns the attacks
// that entered IN_BATTLE during this call, in a deterministic order
// (sorted by attack id) so that world-loop behaviour never depends on
// map iteration order.
//
// An Attack already in IN_BATTLE because it was rehydrated from a
// snapshot (rather than transitioned during this call) is returned
// exactly once across the process lifetime, tracked via
// `BattleStartedDelivered`.
func (en *Engine) StepAll(dtSeconds float64) []*Attack {
	var entering []*Attack

	ids := make([]string, 0, len(en.attacks))
	for id := range en.attacks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		a := en.attacks[id]

		switch a.Phase {
		case Travelling:
			en.stepTravelling(a, dtSeconds)
		case InSiege:
			en.stepSiege(a, dtSeconds)
		}

		if a.Phase == InBattle && !a.BattleStartedDelivered {
			a.BattleStartedDelivered = true
			entering = append(entering, a)
		}
	}

	return entering
}

// stepTravelling :
// Counts an attack's ETA down; when it reaches zero the attack is ready
// to enter siege, but only if the defender's single siege slot is free.
// If the slot is taken, the attack's ETA is clamped to zero and it
// retries on every subsequent tick (FIFO is not enforced, matching
// spec.md's "queue semantics acceptable but not required").
func (en *Engine) stepTravelling(a *Attack, dtSeconds float64) {
	a.ETASeconds = math.Max(0, a.ETASeconds-dtSeconds)
	if a.ETASeconds > 0 {
		return
	}

	if holder, taken := en.siegeSlot[a.DefenderUID]; taken && holder != a.AttackID {
		return
	}

	from := a.Phase
	offset := en.source.Effect(a.DefenderUID, "siege_time_offset")
	siege := maxf(1, en.config.BaseSiegeSeconds+offset)

	a.Phase = InSiege
	a.SiegeRemaining = siege
	a.InitialSiege = siege
	en.siegeSlot[a.DefenderUID] = a.AttackID

	en.emitPhaseChange(a, from)
}

// stepSiege :
// Counts an attack's siege timer down; when it reaches zero the attack
// enters IN_BATTLE (espionage attacks included; the world loop then
// finishes those through ResolveEspionage) and the siege slot frees for
// the next contender.
func (en *Engine) stepSiege(a *Attack, dtSeconds float64) {
	a.SiegeRemaining = math.Max(0, a.SiegeRemaining-dtSeconds)
	if a.SiegeRemaining > 0 {
		return
	}

	en.endSiegeSlot(a)

	from := a.Phase
	a.Phase = InBattle
	en.emitPhaseChange(a, from)

	if en.bus != nil {
		en.bus.Emit(eventbus.BattleStartRequested, eventbus.BattleStartRequestedEvent{
			AttackID:    a.AttackID,
			AttackerUID: a.AttackerUID,
			DefenderUID: a.DefenderUID,
			ArmyAid:     a.ArmyAid,
		})
	}
}

// endSiegeSlot :
// Frees the defender's siege slot, if `a` is the one holding it.
func (en *Engine) endSiegeSlot(a *Attack) {
	if holder, ok := en.siegeSlot[a.DefenderUID]; ok && holder == a.AttackID {
		delete(en.siegeSlot, a.DefenderUID)
	}
}

// Finish :
// Marks an attack FINISHED once its battle (or its espionage resolution)
// has completed. Called by the world loop on `BattleFinished`.
func (en *Engine) Finish(attackID string) {
	a, ok := en.attacks[attackID]
	if !ok {
		return
	}
	from := a.Phase
	a.Phase = Finished
	en.emitPhaseChange(a, from)
}

// ResolveEspionage :
// Called by the world loop instead of instantiating a battle when an
// entering-IN_BATTLE attack is flagged `IsEspionage`: it immediately
// finishes the attack. No espionage report payload is built or sent for
// it; this engine only owns the state-machine transition.
func (en *Engine) ResolveEspionage(attackID string) {
	en.Finish(attackID)
}
