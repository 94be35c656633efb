package battle

import (
	"math/rand"

	"github.com/empiresrv/empireserver/internal/hexcoord"
	"github.com/empiresrv/empireserver/internal/items"
)

// noFocus :
// Sentinel value for a structure's `FocusCid` when it has no current
// target. Splash sub-shots mark their missing source structure with an
// empty `SourceSid`, not with this value.
const noFocus = -1

// Critter :
// One spawned instance of a critter item, alive on a battle's path.
//
// The `Cid` is a globally-unique-within-the-battle instance id, assigned
// from a monotonic counter at spawn time; it is never reused.
//
// The `Path`/`PathProgress` describe its position: `PathProgress` is
// normalised to [0,1] over the full path length (invariant C1).
//
// The `SlowRemainingMs`/`SlowSpeed` and `BurnRemainingMs`/`BurnDps` are
// the two status-effect timers a COLD or BURN shot can apply.
type Critter struct {
	Cid int
	Iid string

	Health    float64
	MaxHealth float64
	Speed     float64
	Armour    float64

	Path         []hexcoord.Hex
	PathProgress float64

	Capture      map[string]float64
	Bonus        map[string]float64
	SpawnOnDeath map[string]int

	SlowRemainingMs float64
	SlowSpeed       float64
	BurnRemainingMs float64
	BurnDps         float64
}

// effectiveSpeed :
// The critter's current movement speed: its `SlowSpeed` while a slow
// effect is active, otherwise its unmodified `Speed`.
func (c *Critter) effectiveSpeed() float64 {
	if c.SlowRemainingMs > 0 {
		return c.SlowSpeed
	}
	return c.Speed
}

// Structure :
// A copied, battle-local snapshot of a defensive structure. Identical in
// shape to the owning empire's structure, but `FocusCid` and
// `ReloadRemainingMs` are transient simulation state that never leaks
// back to the empire (spec.md's Structure entity already marks them
// transient).
type Structure struct {
	Sid string
	Iid string

	Q, R int

	Damage    float64
	Range     int
	ReloadMs  int
	ShotSpeed float64
	ShotType  items.ShotType
	Effects   map[string]float64

	FocusCid          int
	ReloadRemainingMs float64
}

// Shot :
// One in-flight projectile. `SourceSid` is empty for a splash sub-shot,
// matching spec.md's "-1 for splash sub-shots" (represented here as the
// empty string since structure ids are strings in this port).
type Shot struct {
	Damage    float64
	TargetCid int
	SourceSid string
	ShotType  items.ShotType
	Effects   map[string]float64

	FlightRemainingMs float64
	InitialFlightMs   float64

	OriginQ, OriginR int
}

// DisplayProgress :
// The shot's flight completion fraction in [0,1], for client rendering.
func (s *Shot) DisplayProgress() float64 {
	if s.InitialFlightMs <= 0 {
		return 1
	}
	done := 1 - s.FlightRemainingMs/s.InitialFlightMs
	if done < 0 {
		return 0
	}
	if done > 1 {
		return 1
	}
	return done
}

// Wave :
// A battle-local snapshot of one CritterWave from the attacking Army.
type Wave struct {
	WaveID      string
	Iid         string
	Slots       int
	Spawned     int
	NextSpawnMs float64
}

// RemovalReason :
// Why a critter left `battle.Critters` this tick, recorded for
// telemetry/debugging rather than any gameplay rule.
type RemovalReason string

// Defines the reasons a critter can be removed mid-tick.
const (
	ReasonDied       RemovalReason = "died"
	ReasonReachedEnd RemovalReason = "reached_end"
)

// Removal :
// One entry of a tick's removal journal.
type Removal struct {
	Cid    int
	Reason RemovalReason
}

// BattleState :
// One independent tower-defense simulation, created when an Attack's
// siege completes and destroyed when its simulator loop exits.
//
// The `DefenderResources` is the *same* map instance as the defending
// Empire's `Resources` (Go maps are reference types): the battle runtime
// mutates `life` and loot keys directly on it, and the rest of the core
// sees the change immediately, consistent with spec.md §5's rule that a
// battle simulator may touch only those two families of the empire it
// defends.
//
// The `rng` is seeded once, at construction, from the `seed` passed to
// New, so that replays of a battle with the same seed draw the same loot
// rolls.
type BattleState struct {
	Bid            string
	DefenderUID    string
	AttackerUIDs   []string
	AttackID       string
	Waves          []*Wave
	Structures     map[string]*Structure
	Critters       map[int]*Critter
	PendingShots   []*Shot
	Path           []hexcoord.Hex
	ArtefactsOwned []string

	DefenderResources map[string]float64

	ElapsedMs        float64
	BroadcastTimerMs float64

	KeepAlive   bool
	IsFinished  bool
	DefenderWon bool

	Observers map[string]struct{}

	AttackerGains  map[string]map[string]float64
	DefenderLosses map[string]float64

	LastRemovals []Removal

	nextCid  int
	rng      *rand.Rand
	registry *items.Registry
	config   configuration
}

// New :
// Builds a fresh BattleState. `seed` should be derived deterministically
// from `bid` (e.g. a persisted per-bid counter) so that two runs of the
// same battle id produce the same random sequence. `registry` supplies
// the critter stats used when spawning waves and `spawn_on_death`
// replacements.
func New(bid, defenderUID, attackID string, attackerUIDs []string, waves []*Wave, structures map[string]*Structure, path []hexcoord.Hex, defenderResources map[string]float64, artefactsOwned []string, registry *items.Registry, seed int64) *BattleState {
	gains := make(map[string]map[string]float64, len(attackerUIDs))
	for _, uid := range attackerUIDs {
		gains[uid] = make(map[string]float64)
	}

	return &BattleState{
		Bid:               bid,
		DefenderUID:       defenderUID,
		AttackerUIDs:      attackerUIDs,
		AttackID:          attackID,
		Waves:             waves,
		Structures:        structures,
		Critters:          make(map[int]*Critter),
		PendingShots:      nil,
		Path:              path,
		ArtefactsOwned:    artefactsOwned,
		DefenderResources: defenderResources,
		KeepAlive:         true,
		Observers:         make(map[string]struct{}),
		AttackerGains:     gains,
		DefenderLosses:    make(map[string]float64),
		rng:               rand.New(rand.NewSource(seed)),
		registry:          registry,
		config:            parseConfiguration(),
	}
}

// primaryAttacker :
// The attacker credited with loot when a capture map names a resource:
// the first entry of `AttackerUIDs`, since spec.md does not specify a
// split policy for multi-attacker armies.
func (b *BattleState) primaryAttacker() string {
	if len(b.AttackerUIDs) == 0 {
		return ""
	}
	return b.AttackerUIDs[0]
}
