package battle

import (
	"math/rand"

	"github.com/empiresrv/empireserver/internal/hexcoord"
	"github.com/empiresrv/empireserver/internal/items"
)

// Snapshot :
// The persisted, exported-only mirror of a BattleState, used by
// pkg/snapshot to marshal/unmarshal active battles across a restart
// without reaching into this package's unexported fields (nextCid, rng,
// registry, config).
type Snapshot struct {
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

	ElapsedMs        float64
	BroadcastTimerMs float64

	KeepAlive   bool
	IsFinished  bool
	DefenderWon bool

	Observers map[string]struct{}

	AttackerGains  map[string]map[string]float64
	DefenderLosses map[string]float64

	NextCid int
	Seed    int64
}

// ToSnapshot :
// Captures b's persisted state. DefenderResources is deliberately
// excluded: it is the same map instance as the live Empire.Resources and
// is persisted once, as part of the empire record, not duplicated here.
func (b *BattleState) ToSnapshot(seed int64) Snapshot {
	return Snapshot{
		Bid:              b.Bid,
		DefenderUID:      b.DefenderUID,
		AttackerUIDs:     b.AttackerUIDs,
		AttackID:         b.AttackID,
		Waves:            b.Waves,
		Structures:       b.Structures,
		Critters:         b.Critters,
		PendingShots:     b.PendingShots,
		Path:             b.Path,
		ArtefactsOwned:   b.ArtefactsOwned,
		ElapsedMs:        b.ElapsedMs,
		BroadcastTimerMs: b.BroadcastTimerMs,
		KeepAlive:        b.KeepAlive,
		IsFinished:       b.IsFinished,
		DefenderWon:      b.DefenderWon,
		Observers:        b.Observers,
		AttackerGains:    b.AttackerGains,
		DefenderLosses:   b.DefenderLosses,
		NextCid:          b.nextCid,
		Seed:             seed,
	}
}

// FromSnapshot :
// Rebuilds a BattleState from a persisted Snapshot, reattaching the
// defender's live resources map (the same instance the rest of the core
// mutates). The battle-scoped rng is reseeded from the persisted seed
// rather than replaying its exact pre-restart cursor: only the seed is
// persisted, so loot/splash randomness continues a fresh stream after a
// restart instead of byte-for-byte resuming the old one.
func FromSnapshot(s Snapshot, defenderResources map[string]float64, registry *items.Registry) *BattleState {
	b := &BattleState{
		Bid:               s.Bid,
		DefenderUID:       s.DefenderUID,
		AttackerUIDs:      s.AttackerUIDs,
		AttackID:          s.AttackID,
		Waves:             s.Waves,
		Structures:        s.Structures,
		Critters:          s.Critters,
		PendingShots:      s.PendingShots,
		Path:              s.Path,
		ArtefactsOwned:    s.ArtefactsOwned,
		DefenderResources: defenderResources,
		ElapsedMs:         s.ElapsedMs,
		BroadcastTimerMs:  s.BroadcastTimerMs,
		KeepAlive:         s.KeepAlive,
		IsFinished:        s.IsFinished,
		DefenderWon:       s.DefenderWon,
		Observers:         s.Observers,
		AttackerGains:     s.AttackerGains,
		DefenderLosses:    s.DefenderLosses,
		nextCid:           s.NextCid,
		rng:               rand.New(rand.NewSource(s.Seed)),
		registry:          registry,
		config:            parseConfiguration(),
	}
	if b.Observers == nil {
		b.Observers = make(map[string]struct{})
	}
	return b
}
