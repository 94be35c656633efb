package empire

import (
	"fmt"

	"github.com/empiresrv/empireserver/internal/eventbus"
	"github.com/empiresrv/empireserver/internal/items"
	"github.com/empiresrv/empireserver/pkg/logger"
)

// Engine :
// The stateless (beyond its own config) per-tick step function for
// empires. An Engine is shared by every empire in the game — unlike a
// Battle, which is one simulator per instance, there is exactly one
// Engine and it is handed a different *Empire on each call.
//
// The `registry` supplies catalogue lookups (cost, requirements,
// effects) for every operation.
//
// The `bus` is used to emit `ItemCompleted` whenever a build or research
// slot completes.
//
// The `log` reports unexpected conditions; operations never panic.
type Engine struct {
	config   configuration
	registry *items.Registry
	bus      *eventbus.Bus
	log      logger.Logger
}

// NewEngine :
// Builds an empire engine bound to the given catalogue and event bus.
func NewEngine(registry *items.Registry, bus *eventbus.Bus, log logger.Logger) *Engine {
	return &Engine{
		config:   parseConfiguration(),
		registry: registry,
		bus:      bus,
		log:      log,
	}
}

// citizenEffectFor :
// Returns the role whose count contributes to the generation rate of the
// given resource, or "" if the resource is not citizen-boosted.
func citizenEffectFor(resource string) (CitizenRole, bool) {
	switch resource {
	case Gold:
		return Merchant, true
	case Culture:
		return Artist, true
	default:
		return "", false
	}
}

// Step :
// Advances a single empire by `dtSeconds`: generates resources, then
// progresses the build queue, then the research queue, in that fixed
// order (spec.md §4.4 steps 1-3). Every sub-step preserves invariants
// I1-I5.
func (en *Engine) Step(e *Empire, dtSeconds float64) {
	en.generateResources(e, dtSeconds)
	en.progressQueue(e, &e.BuildQueue, e.Buildings, "build_speed_modifier", 0, dtSeconds)
	en.progressQueue(e, &e.ResearchQueue, e.Knowledge, "research_speed_modifier", float64(e.Citizens[Scientist])*en.config.CitizenEffect, dtSeconds)

	if e.Resources[Life] > e.MaxLife {
		e.Resources[Life] = e.MaxLife
	}
}

// generateResources :
// Step 1 of spec.md §4.4: for gold and culture, compute
// `rate = (base + offset_effect) * (1 + citizens*CITIZEN_EFFECT + modifier_effect)`
// and add `rate * dt` to the resource. Life is never passively generated.
func (en *Engine) generateResources(e *Empire, dtSeconds float64) {
	rates := map[string]float64{
		Gold:    en.config.BaseGoldRate,
		Culture: en.config.BaseCultureRate,
	}

	for resource, base := range rates {
		offset := e.Effects[resource+"_offset"]
		modifier := e.Effects[resource+"_modifier"]

		citizenBonus := 0.0
		if role, ok := citizenEffectFor(resource); ok {
			citizenBonus = float64(e.Citizens[role]) * en.config.CitizenEffect
		}

		rate := (base + offset) * (1 + citizenBonus + modifier)
		e.Resources[resource] += rate * dtSeconds
	}
}

// progressQueue :
// Step 2/3 of spec.md §4.4: if `*queue` names an iid with positive
// remaining effort in `progressMap`, subtract
// `dt * (1 + citizenBonus + speedModifierEffect)` from it, where
// `citizenBonus` is the scientists' share for the research queue and 0
// for the build queue; clamp to zero and complete the item once it
// reaches zero.
func (en *Engine) progressQueue(e *Empire, queue *string, progressMap map[string]float64, speedEffect string, citizenBonus float64, dtSeconds float64) {
	iid := *queue
	if iid == "" {
		return
	}

	remaining, ok := progressMap[iid]
	if !ok || remaining <= 0 {
		*queue = ""
		return
	}

	speed := 1 + citizenBonus + e.Effects[speedEffect]
	remaining -= dtSeconds * speed

	if remaining <= 0 {
		progressMap[iid] = 0
		*queue = ""
		en.completeItem(e, iid)
		return
	}

	progressMap[iid] = remaining
}

// completeItem :
// Applies the effects of a just-finished building/knowledge item and
// emits `ItemCompleted`. Shared by the tick-driven completion path and
// `BuildItem`'s zero-effort synchronous path.
func (en *Engine) completeItem(e *Empire, iid string) {
	en.RecalculateEffects(e)
	if en.bus != nil {
		en.bus.Emit(eventbus.ItemCompleted, eventbus.ItemCompletedEvent{EmpireUID: e.UID, Iid: iid})
	}
}

// RecalculateEffects :
// Rebuilds the empire's aggregated effect map from scratch by summing
// each completed building's, completed knowledge's, and held artefact's
// effect map. Must be called whenever the completed set changes so that
// invariant I4 holds: uncompleted items never contribute.
func (en *Engine) RecalculateEffects(e *Empire) {
	totals := make(map[string]float64)

	accumulate := func(iid string) {
		it, err := en.registry.Get(iid)
		if err != nil {
			return
		}
		for k, v := range it.Effects {
			totals[k] += v
		}
	}

	for iid, remaining := range e.Buildings {
		if remaining == 0 {
			accumulate(iid)
		}
	}
	for iid, remaining := range e.Knowledge {
		if remaining == 0 {
			accumulate(iid)
		}
	}
	for _, iid := range e.Artefacts {
		accumulate(iid)
	}

	e.Effects = totals
}

// ErrInternal :
// Wraps an unexpected registry failure into the same local-error style
// every other empire operation uses; reachable only through a
// programming bug (a dangling iid reference), never through ordinary
// player input.
var ErrInternal = fmt.Errorf("internal empire engine error")
