package battle

import (
	"github.com/empiresrv/empireserver/internal/hexcoord"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// positionOf :
// Approximates a critter's current hex as the path node nearest its
// `PathProgress`. Good enough for range checks and splash-radius scans;
// the client-visible interpolation used for rendering progress bars is a
// purely cosmetic `PathProgress` float, not this discrete position.
func positionOf(c *Critter) hexcoord.Hex {
	if len(c.Path) == 0 {
		return hexcoord.Hex{}
	}
	idx := int(c.PathProgress*float64(len(c.Path)-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(c.Path) {
		idx = len(c.Path) - 1
	}
	return c.Path[idx]
}

// sortedCritterIDs / sortedStructureIDs :
// Deterministic iteration orders required by spec.md §4.6's determinism
// clause.
func (b *BattleState) sortedCritterIDs() []int {
	ids := maps.Keys(b.Critters)
	slices.Sort(ids)
	return ids
}

func (b *BattleState) sortedStructureIDs() []string {
	ids := maps.Keys(b.Structures)
	slices.Sort(ids)
	return ids
}

// Tick :
// Advances the battle by dtMs, running the five phases in their fixed
// order: shots, critters, towers, armies, bookkeeping. Deterministic: the
// same BattleState ticked by the same dtMs always yields the same next
// state.
func Tick(b *BattleState, dtMs float64) {
	if b.IsFinished {
		return
	}

	b.LastRemovals = nil

	tickShots(b, dtMs)
	tickCritters(b, dtMs)
	tickTowers(b, dtMs)
	tickArmies(b, dtMs)
	tickBookkeeping(b, dtMs)
}

// tickShots :
// Phase 1. Ages every pending shot and resolves the ones that arrive
// this tick.
func tickShots(b *BattleState, dtMs float64) {
	remaining := b.PendingShots[:0]

	for _, s := range b.PendingShots {
		s.FlightRemainingMs -= dtMs
		if s.FlightRemainingMs > 0 {
			remaining = append(remaining, s)
			continue
		}
		resolveShot(b, s)
	}

	b.PendingShots = remaining
}

// resolveShot :
// Applies a single arrived shot's damage and status effects to its
// target, if the target is still present. The shot is always consumed,
// whether or not the target survived to be hit.
func resolveShot(b *BattleState, s *Shot) {
	target, ok := b.Critters[s.TargetCid]
	if !ok {
		return
	}

	switch s.ShotType {
	case "NORMAL":
		effective := s.Damage - target.Armour
		if effective < 0 {
			effective = 0
		}
		target.Health -= effective

	case "COLD":
		effective := s.Damage - target.Armour
		if effective < 0 {
			effective = 0
		}
		target.Health -= effective
		target.SlowRemainingMs = s.Effects["slow_target_duration"] * 1000
		target.SlowSpeed = target.Speed * s.Effects["slow_target"]

	case "BURN":
		target.Health -= s.Damage
		target.BurnRemainingMs = s.Effects["burn_target_duration"] * 1000
		target.BurnDps = s.Effects["burn_target_dps"]

	case "SPLASH":
		effective := s.Damage - target.Armour
		if effective < 0 {
			effective = 0
		}
		target.Health -= effective
		enqueueSplashSubShots(b, s, target)
	}
}

// enqueueSplashSubShots :
// For a SPLASH shot's primary hit, enqueues additional NORMAL sub-shots
// against every other living critter within `SplashRadius` of the impact
// hex, in cid order for determinism.
func enqueueSplashSubShots(b *BattleState, primary *Shot, hitTarget *Critter) {
	impact := positionOf(hitTarget)

	for _, cid := range b.sortedCritterIDs() {
		if cid == hitTarget.Cid {
			continue
		}
		c := b.Critters[cid]
		if impact.Distance(positionOf(c)) > b.config.SplashRadius {
			continue
		}

		b.PendingShots = append(b.PendingShots, &Shot{
			Damage:            primary.Damage,
			TargetCid:         cid,
			SourceSid:         "",
			ShotType:          "NORMAL",
			Effects:           primary.Effects,
			FlightRemainingMs: b.config.SplashSubShotFlightMs,
			InitialFlightMs:   b.config.SplashSubShotFlightMs,
			OriginQ:           impact.Q,
			OriginR:           impact.R,
		})
	}
}

// tickCritters :
// Phase 2. Advances every living critter along its path, applies burn
// damage and timer decay, then hands off to the death/finish handlers.
func tickCritters(b *BattleState, dtMs float64) {
	dtSeconds := dtMs / 1000

	for _, cid := range b.sortedCritterIDs() {
		c := b.Critters[cid]

		speed := c.effectiveSpeed()
		if len(c.Path) > 1 {
			c.PathProgress += (speed * dtSeconds) / float64(len(c.Path)-1)
		}
		if c.PathProgress > 1 {
			c.PathProgress = 1
		}
		if c.PathProgress < 0 {
			c.PathProgress = 0
		}

		if c.BurnRemainingMs > 0 {
			burnWindow := dtMs
			if burnWindow > c.BurnRemainingMs {
				burnWindow = c.BurnRemainingMs
			}
			c.Health -= c.BurnDps * burnWindow / 1000
			c.BurnRemainingMs -= dtMs
			if c.BurnRemainingMs < 0 {
				c.BurnRemainingMs = 0
			}
		}

		if c.SlowRemainingMs > 0 {
			c.SlowRemainingMs -= dtMs
			if c.SlowRemainingMs < 0 {
				c.SlowRemainingMs = 0
			}
		}

		switch {
		case c.Health <= 0:
			handleDeath(b, c)
		case c.PathProgress >= 1:
			handleReachedEnd(b, c)
		}
	}
}

// handleDeath :
// Removes a killed critter, credits the defender's configured reward,
// and spawns any `spawn_on_death` replacements at the same path
// progress.
func handleDeath(b *BattleState, c *Critter) {
	delete(b.Critters, c.Cid)
	b.LastRemovals = append(b.LastRemovals, Removal{Cid: c.Cid, Reason: ReasonDied})

	b.DefenderResources["gold"] += b.config.DefenderCritterReward

	spawnIids := maps.Keys(c.SpawnOnDeath)
	slices.Sort(spawnIids)
	for _, iid := range spawnIids {
		count := c.SpawnOnDeath[iid]
		for i := 0; i < count; i++ {
			replacement := spawnCritterFromJournal(b, iid, c.Path, c.PathProgress)
			if replacement != nil {
				b.Critters[replacement.Cid] = replacement
			}
		}
	}
}

// handleReachedEnd :
// Removes a critter that reached the castle, applies its capture damage
// to the defender's life, and accumulates loot deltas for later
// application.
func handleReachedEnd(b *BattleState, c *Critter) {
	delete(b.Critters, c.Cid)
	b.LastRemovals = append(b.LastRemovals, Removal{Cid: c.Cid, Reason: ReasonReachedEnd})

	life := c.Capture["life"]
	if life == 0 {
		life = 1
	}
	b.DefenderResources["life"] -= life
	b.DefenderLosses["life"] += life

	attacker := b.primaryAttacker()
	for key, amount := range c.Capture {
		if key == "life" {
			continue
		}
		if attacker == "" {
			continue
		}
		b.AttackerGains[attacker][key] += amount
	}
}

// tickTowers :
// Phase 3. Reloads each structure and, once ready, fires at the
// most-advanced in-range critter (ties broken by lowest cid).
func tickTowers(b *BattleState, dtMs float64) {
	for _, sid := range b.sortedStructureIDs() {
		s := b.Structures[sid]

		s.ReloadRemainingMs -= dtMs
		if s.ReloadRemainingMs > 0 {
			continue
		}

		target := selectTarget(b, s)
		if target == nil {
			continue
		}

		origin := hexcoord.New(s.Q, s.R)
		dist := origin.Distance(positionOf(target))
		flight := float64(dist) / s.ShotSpeed * 1000
		if flight < 0 {
			flight = 0
		}

		b.PendingShots = append(b.PendingShots, &Shot{
			Damage:            s.Damage,
			TargetCid:         target.Cid,
			SourceSid:         s.Sid,
			ShotType:          s.ShotType,
			Effects:           s.Effects,
			FlightRemainingMs: flight,
			InitialFlightMs:   flight,
			OriginQ:           s.Q,
			OriginR:           s.R,
		})

		s.FocusCid = target.Cid
		s.ReloadRemainingMs = float64(s.ReloadMs)
	}
}

// selectTarget :
// Picks the most-advanced in-range critter for a structure, breaking
// ties by lowest cid so target selection is reproducible.
func selectTarget(b *BattleState, s *Structure) *Critter {
	origin := hexcoord.New(s.Q, s.R)

	var best *Critter
	for _, cid := range b.sortedCritterIDs() {
		c := b.Critters[cid]
		if origin.Distance(positionOf(c)) > s.Range {
			continue
		}
		if best == nil || c.PathProgress > best.PathProgress {
			best = c
		}
	}
	return best
}

// tickArmies :
// Phase 4. Advances the active wave's spawn timer and spawns critters as
// it reaches zero, applying the configured inter-wave delay between
// waves.
func tickArmies(b *BattleState, dtMs float64) {
	for i, w := range b.Waves {
		if w.Spawned >= w.Slots {
			continue
		}

		w.NextSpawnMs -= dtMs
		if w.NextSpawnMs > 0 {
			break
		}

		c := spawnCritterFromJournal(b, w.Iid, b.Path, 0)
		if c == nil {
			break
		}
		b.Critters[c.Cid] = c
		w.Spawned++

		interval := spawnIntervalFor(b, w.Iid)
		if w.Spawned < w.Slots {
			w.NextSpawnMs = interval
		} else if i+1 < len(b.Waves) && b.Waves[i+1].NextSpawnMs < b.config.InterWaveDelayMs {
			b.Waves[i+1].NextSpawnMs = b.config.InterWaveDelayMs
		}
		break
	}
}

// tickBookkeeping :
// Phase 5. Advances the battle clock and evaluates finish conditions.
func tickBookkeeping(b *BattleState, dtMs float64) {
	b.ElapsedMs += dtMs
	b.BroadcastTimerMs -= dtMs

	if b.ElapsedMs < b.config.MinKeepAliveMs {
		return
	}

	if b.DefenderResources["life"] <= 0 {
		b.IsFinished = true
		b.DefenderWon = false
		return
	}

	if allWavesSpent(b) && len(b.Critters) == 0 {
		b.IsFinished = true
		b.DefenderWon = true
	}
}

func allWavesSpent(b *BattleState) bool {
	for _, w := range b.Waves {
		if w.Spawned < w.Slots {
			return false
		}
	}
	return true
}

// spawnCritterFromJournal :
// Builds a fresh Critter from the registry's copy of `iid`'s stats,
// assigning the next cid from the battle's monotonic counter. Returns
// nil if the iid is unknown (a configuration bug, never a player
// action), leaving the journal entry that triggered the spawn
// unfulfilled rather than panicking.
func spawnCritterFromJournal(b *BattleState, iid string, path []hexcoord.Hex, pathProgress float64) *Critter {
	it, err := b.registry.Get(iid)
	if err != nil {
		return nil
	}

	b.nextCid++
	return &Critter{
		Cid:          b.nextCid,
		Iid:          iid,
		Health:       it.Health,
		MaxHealth:    it.Health,
		Speed:        it.Speed,
		Armour:       it.Armour,
		Path:         path,
		PathProgress: pathProgress,
		Capture:      it.Capture,
		Bonus:        it.Bonus,
		SpawnOnDeath: it.SpawnOnDeath,
	}
}

// spawnIntervalFor :
// The configured time between two consecutive spawns of `iid` within its
// wave, pulled from the registry's `SpawnIntervalMs`.
func spawnIntervalFor(b *BattleState, iid string) float64 {
	it, err := b.registry.Get(iid)
	if err != nil {
		return 0
	}
	return float64(it.SpawnIntervalMs)
}
