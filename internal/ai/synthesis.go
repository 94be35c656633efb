package ai

import (
	"math"

	"github.com/empiresrv/empireserver/internal/items"
)

// WaveSpec :
// A synthesized wave: a critter iid and how many slots it gets. Distinct
// from internal/empire's CritterWave (which additionally tracks live
// spawn bookkeeping) because a WaveSpec is only a blueprint until the
// world loop turns it into an actual Army.
type WaveSpec struct {
	Iid   string
	Slots int
}

// SynthesizedArmy :
// The result of army synthesis: an ordered wave list plus the per-wave
// start delay derived from `InitialWaveDelayMs` (the first wave starts
// immediately, every subsequent one waits the configured delay).
type SynthesizedArmy struct {
	Waves           []WaveSpec
	WaveDelayMs     float64
}

// pool :
const (
	poolFast pool = iota
	poolArmored
	poolNormal
)

type pool int

// partitionCritters :
// Splits the available critters into the fast/armored/normal pools
// spec.md §4.8 names, using the configured speed threshold to decide
// fast vs not and a positive armour value to decide armored vs not
// (fast takes priority when a critter satisfies both).
func partitionCritters(available []items.Item, config configuration) map[pool][]items.Item {
	pools := map[pool][]items.Item{poolFast: {}, poolArmored: {}, poolNormal: {}}
	for _, it := range available {
		switch {
		case it.Speed >= config.SpeedThreshold:
			pools[poolFast] = append(pools[poolFast], it)
		case it.Armour > 0:
			pools[poolArmored] = append(pools[poolArmored], it)
		default:
			pools[poolNormal] = append(pools[poolNormal], it)
		}
	}
	return pools
}

// highestHealth :
// Returns the highest-max-health critter in a pool, or the zero Item (no
// Iid) if the pool is empty.
func highestHealth(candidates []items.Item) (items.Item, bool) {
	var best items.Item
	found := false
	for _, it := range candidates {
		if !found || it.Health > best.Health {
			best = it
			found = true
		}
	}
	return best, found
}

// SynthesizeArmy :
// Builds a WaveSpec list against `budget` total power, round-robining
// across the fast/armored/normal pools according to their configured
// share of the budget. `available` should already be filtered to the
// defender's era-appropriate critters (falling back to the full
// catalogue when that filter yields nothing, per spec.md §4.8).
func SynthesizeArmy(budget float64, available []items.Item, config configuration) SynthesizedArmy {
	pools := partitionCritters(available, config)
	shares := map[pool]float64{
		poolFast:    config.SpeedBias,
		poolArmored: config.ArmorBias,
		poolNormal:  1 - config.SpeedBias - config.ArmorBias,
	}
	order := []pool{poolFast, poolArmored, poolNormal}

	var waves []WaveSpec
	wavesForShare := map[pool]int{}
	for _, p := range order {
		wavesForShare[p] = 0
	}
	for i := 0; i < config.WaveCount; i++ {
		wavesForShare[order[i%len(order)]]++
	}

	for i := 0; i < config.WaveCount; i++ {
		p := order[i%len(order)]
		candidates := pools[p]
		if len(candidates) == 0 {
			candidates = available
		}
		critter, ok := highestHealth(candidates)
		if !ok {
			continue
		}

		share := shares[p]
		n := wavesForShare[p]
		if n < 1 {
			n = 1
		}
		perWaveBudget := budget * share / float64(n)

		health := critter.Health
		if health < 1 {
			health = 1
		}

		slots := int(math.Ceil(perWaveBudget / health))
		if slots < config.MinSlots {
			slots = config.MinSlots
		}
		if slots > config.MaxSlots {
			slots = config.MaxSlots
		}

		waves = append(waves, WaveSpec{Iid: critter.Iid, Slots: slots})
	}

	return SynthesizedArmy{Waves: waves, WaveDelayMs: config.InitialWaveDelayMs}
}
