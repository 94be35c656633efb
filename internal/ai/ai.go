package ai

import (
	"fmt"

	"github.com/empiresrv/empireserver/internal/attack"
	"github.com/empiresrv/empireserver/internal/eventbus"
	"github.com/empiresrv/empireserver/internal/ids"
	"github.com/empiresrv/empireserver/internal/items"
	"github.com/empiresrv/empireserver/pkg/logger"
)

// Engine :
// The AI opponent. Subscribes only to `BattleFinished` (to close out
// `pending` and apply adaptation); scripted waves are evaluated when the
// world loop, which subscribes to `ItemCompleted`, calls OnItemCompleted.
//
// The `powerMultiplier` scales every synthesized army's budget; it is
// the single adapted parameter, nudged by `win_rate` after each battle
// this AI fought.
//
// The `window` is the batch of battle outcomes (true = AI's army won,
// i.e. `!defender_won`) accumulated since the last adaptation; it is
// emptied each time it reaches `config.WindowSize` and the multiplier is
// adapted.
//
// The `pending` maps an in-flight attack_id this AI dispatched to the
// defender_uid it targeted, so `BattleFinished` can be attributed.
//
// The `armies` map lets the world loop retrieve a synthesized army's
// wave list by the army id handed back from `Dispatch`, since
// `attack.Engine` only stores an opaque `ArmyAid` on the Attack.
type Engine struct {
	config configuration

	registry *items.Registry
	attacks  *attack.Engine
	bus      *eventbus.Bus
	log      logger.Logger

	scriptedDefs []ScriptedWaveDef

	powerMultiplier float64
	window          []bool

	pending map[string]string
	armies  map[string]SynthesizedArmy
}

// NewEngine :
// Builds an AI engine with the given scripted-wave catalogue, bound to
// the attack engine it dispatches through and the bus it observes.
func NewEngine(registry *items.Registry, attacks *attack.Engine, bus *eventbus.Bus, log logger.Logger, scriptedDefs []ScriptedWaveDef) *Engine {
	en := &Engine{
		config:          parseConfiguration(),
		registry:        registry,
		attacks:         attacks,
		bus:             bus,
		log:             log,
		scriptedDefs:    scriptedDefs,
		powerMultiplier: 1.0,
		pending:         make(map[string]string),
		armies:          make(map[string]SynthesizedArmy),
	}

	if bus != nil {
		bus.Subscribe(eventbus.BattleFinished, en.onBattleFinished)
	}

	return en
}

// Army :
// Retrieves a previously synthesized (or scripted) army by the aid
// `Dispatch` returned, so the world loop can turn it into battle waves
// once the attack reaches IN_BATTLE. The entry is left in place after
// lookup since a replay of the same restart snapshot may need it again.
func (en *Engine) Army(aid string) (SynthesizedArmy, bool) {
	a, ok := en.armies[aid]
	return a, ok
}

// OnItemCompleted :
// Evaluates every scripted definition against a just-completed item and
// returns the ones that fire. The caller (world loop, subscribed to the
// same bus event) decides whether to act on them; this engine itself
// only acts on scripted triggers at dispatch time via `SelectOverride`.
func (en *Engine) OnItemCompleted(completedIid string, citizenCount int) []ScriptedWaveDef {
	return EvaluateTriggers(en.scriptedDefs, completedIid, citizenCount)
}

// Dispatch :
// Scores `defender`, synthesizes (or substitutes a fully-triggered
// scripted) army against it, starts the attack via
// `attack.Engine.StartAIAttack`, and records the pending mapping for
// later adaptation. Returns the new attack's id.
func (en *Engine) Dispatch(defender DefenderView, available []items.Item) string {
	power := PlayerPower(defender, en.registry, en.config)
	budget := power * en.powerMultiplier

	army := SynthesizeArmy(budget, available, en.config)
	if override, ok := SelectOverride(en.scriptedDefs, defender.CompletedSet()); ok {
		army = SynthesizedArmy{Waves: override.Waves, WaveDelayMs: en.config.InitialWaveDelayMs}
	}

	aid := ids.New()
	en.armies[aid] = army

	attackID := ids.New()
	en.attacks.StartAIAttack(attackID, UID, defender.UID(), aid)
	en.pending[attackID] = defender.UID()

	if en.log != nil {
		en.log.Trace(logger.Info, "ai", fmt.Sprintf("dispatched attack %s against %s (power=%.1f budget=%.1f)", attackID, defender.UID(), power, budget))
	}

	return attackID
}

// onBattleFinished :
// Looks up a finished battle's attack in `pending`; if this AI
// dispatched it, records the outcome and applies adaptation.
func (en *Engine) onBattleFinished(ev interface{}) {
	e, ok := ev.(eventbus.BattleFinishedEvent)
	if !ok {
		return
	}

	attackID := e.AttackID
	defenderUID, tracked := en.pending[attackID]
	if !tracked {
		return
	}
	delete(en.pending, attackID)

	en.recordOutcome(!e.DefenderWon)

	if en.log != nil {
		en.log.Trace(logger.Debug, "ai", fmt.Sprintf("battle %s vs %s resolved, ai_won=%v, power_multiplier=%.3f", e.BattleID, defenderUID, !e.DefenderWon, en.powerMultiplier))
	}
}

// recordOutcome :
// Phase-style alias for adaptation: pushes one outcome into the
// accumulating batch and, once it reaches `WindowSize`, hands it to
// `adapt`.
func (en *Engine) recordOutcome(aiWon bool) {
	en.window = append(en.window, aiWon)
	en.adapt()
}

// adapt :
// Implements spec.md §4.8's adaptation rule: batches outcomes until
// `WindowSize` of them have accumulated, compares that batch's win rate
// to `target ± 0.05`, nudges `power_multiplier` by `adaptation_rate`
// (clamped to [floor, cap]) at most once per batch, then starts a fresh
// batch. A sliding window would instead re-evaluate on every single
// outcome once full, firing the adjustment far more often than once per
// `WindowSize` battles.
func (en *Engine) adapt() {
	if len(en.window) < en.config.WindowSize {
		return
	}

	wins := 0
	for _, w := range en.window {
		if w {
			wins++
		}
	}
	winRate := float64(wins) / float64(len(en.window))

	switch {
	case winRate > en.config.TargetWinRate+0.05:
		en.powerMultiplier -= en.config.AdaptationRate
	case winRate < en.config.TargetWinRate-0.05:
		en.powerMultiplier += en.config.AdaptationRate
	}

	if en.powerMultiplier < en.config.PowerMultiplierFloor {
		en.powerMultiplier = en.config.PowerMultiplierFloor
	}
	if en.powerMultiplier > en.config.PowerMultiplierCap {
		en.powerMultiplier = en.config.PowerMultiplierCap
	}

	en.window = en.window[:0]
}

// PowerMultiplier :
// Exposes the current adapted multiplier, chiefly for tests and
// telemetry.
func (en *Engine) PowerMultiplier() float64 {
	return en.powerMultiplier
}
