package worldloop

import (
	"fmt"
	"sort"
	"time"

	"github.com/empiresrv/empireserver/internal/ai"
	"github.com/empiresrv/empireserver/internal/attack"
	"github.com/empiresrv/empireserver/internal/battle"
	"github.com/empiresrv/empireserver/internal/empire"
	"github.com/empiresrv/empireserver/internal/eventbus"
	"github.com/empiresrv/empireserver/internal/hexcoord"
	"github.com/empiresrv/empireserver/internal/ids"
	"github.com/empiresrv/empireserver/internal/items"
	"github.com/empiresrv/empireserver/internal/locker"
	"github.com/empiresrv/empireserver/pkg/background"
	"github.com/empiresrv/empireserver/pkg/logger"
)

// Broadcaster :
// The C9 contract this package depends on (spec.md §4.9): best-effort
// delivery to a single session and fan-out to an observer set. Kept as
// an interface so this package never imports internal/session — the
// transport that implements it is wired in by cmd/empireserver.
type Broadcaster interface {
	Send(uid string, message interface{}) bool
	Broadcast(uids map[string]struct{}, message interface{}) int
}

// battleRuntime :
// Bundles one active battle's simulation state with the background
// process driving its own fine tick, independent of the world loop's
// coarse cadence (spec.md §5: "any battle simulator may have run any
// number of its own ticks" between two world ticks).
type battleRuntime struct {
	state *battle.BattleState
	proc  *background.Process
	seed  int64
}

// Loop :
// The C7 world loop: advances every empire's economy and every
// in-flight attack once per `StepLengthMs`, and spawns/retires the
// battle simulators of internal/battle on demand. It is the only
// component that ever holds both an attacker's and a defender's empire
// at once (through ApplyLoot's lookup), matching spec.md §5's ownership
// rule that an empire is otherwise touched by at most one of
// {world-loop tick, a request handler, the battle simulator it is
// currently defending}.
//
// The `locks` serialises empire mutation across those three actors,
// keyed on empire uid, using the same per-resource lock pool pattern the
// teacher codebase uses for its planets and players.
//
// The `autoStartBattles` flag lets tests disable the real background
// process per spawned battle and instead drive `TickBattle` by hand,
// without otherwise changing `Step`'s behaviour.
type Loop struct {
	config configuration

	registry     *items.Registry
	empireEngine *empire.Engine
	attackEngine *attack.Engine
	aiEngine     *ai.Engine
	bus          *eventbus.Bus
	log          logger.Logger
	locks        *locker.ConcurrentLocker
	broadcaster  Broadcaster

	empires map[string]*empire.Empire
	battles map[string]*battleRuntime

	nextSeed int64
	tick     int64

	lastDtSeconds  float64
	lastWorkTimeMs float64
	avgWorkTimeMs  float64

	autoStartBattles bool

	proc *background.Process
}

// effectSource :
// Adapts the loop's own empire map to internal/attack's EffectSource,
// resolving to 0 for any uid with no registered empire (notably the AI's
// reserved uid, which never has one).
type effectSource struct {
	loop *Loop
}

func (s effectSource) Effect(uid, key string) float64 {
	e, ok := s.loop.empires[uid]
	if !ok {
		return 0
	}
	return empire.NewView(e, s.loop.registry).Effect(uid, key)
}

// NewLoop :
// Builds a world loop wired to its own empire engine, attack engine and
// AI opponent, observing `bus` and pushing battle deltas through
// `broadcaster`. `broadcaster` may be nil (e.g. for headless tests that
// never need to observe a battle).
func NewLoop(registry *items.Registry, bus *eventbus.Bus, log logger.Logger, broadcaster Broadcaster, scriptedDefs []ai.ScriptedWaveDef) *Loop {
	l := &Loop{
		config:           parseConfiguration(),
		registry:         registry,
		bus:              bus,
		log:              log,
		locks:            locker.NewConcurrentLocker(log),
		broadcaster:      broadcaster,
		empires:          make(map[string]*empire.Empire),
		battles:          make(map[string]*battleRuntime),
		autoStartBattles: true,
	}

	l.empireEngine = empire.NewEngine(registry, bus, log)
	l.attackEngine = attack.NewEngine(effectSource{l}, bus, log)
	l.aiEngine = ai.NewEngine(registry, l.attackEngine, bus, log, scriptedDefs)

	if bus != nil {
		bus.Subscribe(eventbus.ItemCompleted, l.onItemCompleted)
	}

	return l
}

// onItemCompleted :
// Implements spec.md §4.8's "item-completion events from C4 trigger C8
// scripted waves": for any non-AI empire that just completed an item,
// evaluates the AI's scripted-wave triggers and, if any fired,
// dispatches an attack against that empire. Kept on the loop (rather
// than inside internal/ai) because only the loop holds the empire map
// ai.DefenderView needs.
func (l *Loop) onItemCompleted(ev interface{}) {
	e, ok := ev.(eventbus.ItemCompletedEvent)
	if !ok || e.EmpireUID == ai.UID {
		return
	}

	target, ok := l.empires[e.EmpireUID]
	if !ok {
		return
	}

	view := empire.NewView(target, l.registry)
	if fired := l.aiEngine.OnItemCompleted(e.Iid, view.CitizenCount()); len(fired) > 0 {
		available := l.registry.AvailableCritters(view.CompletedSet())
		l.aiEngine.Dispatch(view, available)
	}
}

// DisableBattleProcesses :
// Used by tests that want to drive battle ticks deterministically via
// `TickBattle` instead of racing a real wall-clock process.
func (l *Loop) DisableBattleProcesses() {
	l.autoStartBattles = false
}

// RegisterEmpire :
// Adds (or replaces) an empire this loop steps every tick.
func (l *Loop) RegisterEmpire(e *empire.Empire) {
	l.empires[e.UID] = e
}

// Empire :
// Looks up a registered empire by uid.
func (l *Loop) Empire(uid string) (*empire.Empire, bool) {
	e, ok := l.empires[uid]
	return e, ok
}

// AttackEngine / AIEngine / EmpireEngine / Registry :
// Exposed so a C9 session layer (not part of this package) can dispatch
// player intents against the same engines the loop itself drives.
func (l *Loop) AttackEngine() *attack.Engine { return l.attackEngine }
func (l *Loop) AIEngine() *ai.Engine         { return l.aiEngine }
func (l *Loop) EmpireEngine() *empire.Engine { return l.empireEngine }
func (l *Loop) Registry() *items.Registry    { return l.registry }

// Battle :
// Looks up an active battle's state by bid, e.g. for a battle_register
// handler building its battle_setup response.
func (l *Loop) Battle(bid string) (*battle.BattleState, bool) {
	rt, ok := l.battles[bid]
	if !ok {
		return nil, false
	}
	return rt.state, true
}

// Empires :
// Returns every registered empire, sorted by uid. Used by pkg/snapshot
// to persist the full empire set.
func (l *Loop) Empires() []*empire.Empire {
	out := make([]*empire.Empire, 0, len(l.empires))
	for _, uid := range l.sortedEmpireUIDs() {
		out = append(out, l.empires[uid])
	}
	return out
}

// BattleSnapshots :
// Returns a persisted Snapshot of every active battle, sorted by bid,
// each carrying the rng seed its runtime was spawned or restored with.
// Used by pkg/snapshot to persist the full active-battle set.
func (l *Loop) BattleSnapshots() []battle.Snapshot {
	bids := make([]string, 0, len(l.battles))
	for bid := range l.battles {
		bids = append(bids, bid)
	}
	sort.Strings(bids)

	out := make([]battle.Snapshot, 0, len(bids))
	for _, bid := range bids {
		rt := l.battles[bid]
		out = append(out, rt.state.ToSnapshot(rt.seed))
	}
	return out
}

// RestoreBattle :
// Rehydrates a single battle from a persisted snapshot and starts its
// fine-tick process (unless auto-start is disabled for tests), matching
// spec.md's restart-reproducibility requirement for every active
// battle. `seed` is the battle's originating rng seed, persisted
// alongside the snapshot so a later ToSnapshot can carry it forward.
func (l *Loop) RestoreBattle(state *battle.BattleState, seed int64) error {
	rt := &battleRuntime{state: state, seed: seed}
	l.battles[state.Bid] = rt

	if !l.autoStartBattles {
		return nil
	}

	rt.proc = background.NewProcess(time.Duration(l.config.BattleTickMs)*time.Millisecond, l.log).
		WithModule("battle-" + state.Bid).
		WithOperation(l.battleOperation(state.Bid))
	return rt.proc.Start()
}

// RegisterObserver / UnregisterObserver :
// Implements the battle_register/battle_unregister add/remove-from-
// observer-set contract of spec.md §6.
func (l *Loop) RegisterObserver(bid, uid string) bool {
	rt, ok := l.battles[bid]
	if !ok {
		return false
	}
	rt.state.Observers[uid] = struct{}{}
	return true
}

func (l *Loop) UnregisterObserver(bid, uid string) {
	if rt, ok := l.battles[bid]; ok {
		delete(rt.state.Observers, uid)
	}
}

// TickCount / LastDtSeconds / LastWorkTimeMs / AverageWorkTimeMs :
// The monitoring telemetry spec.md §4.7 requires the world loop to
// record: tick counter, wall-clock dt, work-time per tick, rolling
// average. internal/telemetry reads these to populate its Prometheus
// gauges.
func (l *Loop) TickCount() int64            { return l.tick }
func (l *Loop) LastDtSeconds() float64      { return l.lastDtSeconds }
func (l *Loop) LastWorkTimeMs() float64     { return l.lastWorkTimeMs }
func (l *Loop) AverageWorkTimeMs() float64  { return l.avgWorkTimeMs }

// withEmpireLock :
// Acquires this loop's per-uid lock for `uid`, following the teacher's
// own "acquire, defer release, then separately Lock/defer Release the
// lock itself" idiom, and runs `fn` with the empire while held. A no-op
// if the uid names no registered empire.
func (l *Loop) withEmpireLock(uid string, fn func(e *empire.Empire)) {
	e, ok := l.empires[uid]
	if !ok {
		return
	}

	resLock := l.locks.Acquire(uid)
	defer l.locks.Release(resLock)

	resLock.Lock()
	defer resLock.Release()

	fn(e)
}

// Start :
// Begins the coarse world tick as its own background.Process, ticking
// every `StepLengthMs`.
func (l *Loop) Start() error {
	l.proc = background.NewProcess(time.Duration(l.config.StepLengthMs)*time.Millisecond, l.log).
		WithModule("world-loop").
		WithOperation(l.stepOperation)
	return l.proc.Start()
}

// Stop :
// Halts the world tick and every currently active battle's fine tick, so
// that a process shutdown signal becomes visible to all of them, per
// spec.md §5.
func (l *Loop) Stop() {
	if l.proc != nil {
		l.proc.Stop()
	}
	for _, rt := range l.battles {
		if rt.proc != nil {
			rt.proc.Stop()
		}
	}
}

func (l *Loop) stepOperation() (bool, error) {
	l.Step(float64(l.config.StepLengthMs) / 1000)
	return true, nil
}

// Step :
// Advances every empire and every attack by `dtSeconds`, in the fixed
// order spec.md §4.7 names, spawning a battle simulator for each attack
// that newly entered IN_BATTLE. Exported directly (rather than reachable
// only through Start) so tests can drive the loop deterministically
// without waiting on a real timer.
func (l *Loop) Step(dtSeconds float64) {
	start := time.Now()
	l.tick++

	for _, uid := range l.sortedEmpireUIDs() {
		l.withEmpireLock(uid, func(e *empire.Empire) {
			l.empireEngine.Step(e, dtSeconds)
		})
	}

	entering := l.attackEngine.StepAll(dtSeconds)
	for _, a := range entering {
		if a.IsEspionage {
			l.attackEngine.ResolveEspionage(a.AttackID)
			continue
		}
		if err := l.spawnBattle(a); err != nil && l.log != nil {
			l.log.Trace(logger.Error, "world-loop", fmt.Sprintf("failed to spawn battle for attack %s: %v", a.AttackID, err))
		}
	}

	l.lastDtSeconds = dtSeconds
	l.lastWorkTimeMs = float64(time.Since(start).Microseconds()) / 1000
	const emaAlpha = 0.1
	if l.tick == 1 {
		l.avgWorkTimeMs = l.lastWorkTimeMs
	} else {
		l.avgWorkTimeMs = emaAlpha*l.lastWorkTimeMs + (1-emaAlpha)*l.avgWorkTimeMs
	}
}

func (l *Loop) sortedEmpireUIDs() []string {
	uids := make([]string, 0, len(l.empires))
	for uid := range l.empires {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

// spawnBattle :
// Builds a BattleState for an attack that just reached IN_BATTLE:
// computes the critter path from the defender's hex map via
// internal/hexcoord's BFS, copies its structures, resolves the
// attacking army (from the attacker's own Army, or from the AI engine's
// synthesized army when the attacker is the AI), registers the battle,
// and starts its own fine-tick process (unless auto-start is disabled
// for tests).
func (l *Loop) spawnBattle(a *attack.Attack) error {
	defender, ok := l.empires[a.DefenderUID]
	if !ok {
		return fmt.Errorf("unknown defender empire %q", a.DefenderUID)
	}

	tiles := tileMapFromEmpire(defender)
	path, err := hexcoord.FindPathFromSpawnToCastle(tiles)
	if err != nil {
		return fmt.Errorf("computing critter path for %q: %w", a.DefenderUID, err)
	}

	waves := l.buildWaves(a)
	structures := copyStructures(defender, l.registry)

	l.nextSeed++
	bid := ids.New()

	state := battle.New(
		bid,
		a.DefenderUID,
		a.AttackID,
		[]string{a.AttackerUID},
		waves,
		structures,
		path,
		defender.Resources,
		append([]string(nil), defender.Artefacts...),
		l.registry,
		l.nextSeed,
	)

	rt := &battleRuntime{state: state, seed: l.nextSeed}
	l.battles[bid] = rt

	if l.log != nil {
		l.log.Trace(logger.Info, "world-loop", fmt.Sprintf("spawned battle %s for attack %s (%s -> %s)", bid, a.AttackID, a.AttackerUID, a.DefenderUID))
	}

	if !l.autoStartBattles {
		return nil
	}

	rt.proc = background.NewProcess(time.Duration(l.config.BattleTickMs)*time.Millisecond, l.log).
		WithModule("battle-" + bid).
		WithOperation(l.battleOperation(bid))
	return rt.proc.Start()
}

// buildWaves :
// Resolves the wave list an attack's army translates to once it enters
// battle. A player-dispatched attack looks its ArmyAid up among the
// attacker's own Armies, carrying over each CritterWave's spawn
// bookkeeping verbatim. An AI-dispatched attack (AttackerUID == ai.UID)
// looks the synthesized army up from the AI engine instead, spacing
// every wave after the first by the synthesis's configured delay.
func (l *Loop) buildWaves(a *attack.Attack) []*battle.Wave {
	if a.AttackerUID == ai.UID {
		army, ok := l.aiEngine.Army(a.ArmyAid)
		if !ok {
			return nil
		}

		waves := make([]*battle.Wave, 0, len(army.Waves))
		for i, w := range army.Waves {
			delay := 0.0
			if i > 0 {
				delay = army.WaveDelayMs
			}
			waves = append(waves, &battle.Wave{
				WaveID:      fmt.Sprintf("%s-%d", a.ArmyAid, i),
				Iid:         w.Iid,
				Slots:       w.Slots,
				NextSpawnMs: delay,
			})
		}
		return waves
	}

	attacker, ok := l.empires[a.AttackerUID]
	if !ok {
		return nil
	}

	for _, army := range attacker.Armies {
		if army.Aid != a.ArmyAid {
			continue
		}

		waves := make([]*battle.Wave, 0, len(army.Waves))
		for _, w := range army.Waves {
			waves = append(waves, &battle.Wave{
				WaveID:      w.WaveID,
				Iid:         w.CritterIid,
				Slots:       w.Slots,
				Spawned:     w.Spawned,
				NextSpawnMs: float64(w.NextSpawnMs),
			})
		}
		return waves
	}

	return nil
}

// copyStructures :
// Snapshots a defender's placed structures into the battle package's
// own Structure type, resetting the transient simulation fields
// (FocusCid, ReloadRemainingMs) that spec.md's persistence layout
// already requires to be zeroed outside an active battle, and resolving
// each structure's shot effect parameters (slow/burn magnitudes) from
// its catalogue item.
func copyStructures(defender *empire.Empire, registry *items.Registry) map[string]*battle.Structure {
	out := make(map[string]*battle.Structure, len(defender.Structures))

	for sid, s := range defender.Structures {
		effects := map[string]float64{}
		if it, err := registry.Get(s.Iid); err == nil {
			effects = it.Effects
		}

		out[sid] = &battle.Structure{
			Sid:       s.Sid,
			Iid:       s.Iid,
			Q:         s.Position.Q,
			R:         s.Position.R,
			Damage:    s.Damage,
			Range:     s.Range,
			ReloadMs:  s.ReloadMs,
			ShotSpeed: s.ShotSpeed,
			ShotType:  items.ShotType(s.ShotType),
			Effects:   effects,
			FocusCid:  -1,
		}
	}

	return out
}

// tileMapFromEmpire :
// Converts an Empire's persisted "q,r" -> tile-type-string HexMap into
// internal/hexcoord's typed TileMap, for handing to
// FindPathFromSpawnToCastle. Malformed keys (never produced by this
// core's own writers) are skipped rather than failing the whole battle
// spawn.
func tileMapFromEmpire(e *empire.Empire) hexcoord.TileMap {
	tiles := make(hexcoord.TileMap, len(e.HexMap))
	for key, tileType := range e.HexMap {
		var q, r int
		if _, err := fmt.Sscanf(key, "%d,%d", &q, &r); err != nil {
			continue
		}
		tiles[hexcoord.New(q, r)] = hexcoord.TileType(tileType)
	}
	return tiles
}

// battleOperation :
// Builds the background.OperationFunc driving one battle's fine tick,
// closed over its bid.
func (l *Loop) battleOperation(bid string) background.OperationFunc {
	return func() (bool, error) {
		l.TickBattle(bid)
		return true, nil
	}
}

// TickBattle :
// Advances one active battle by one fine tick (`BattleTickMs`),
// broadcasts a delta when its timer elapses, and finalises it once it
// reports IsFinished. Exported so tests can drive a spawned battle
// deterministically when auto-start is disabled.
func (l *Loop) TickBattle(bid string) {
	rt, ok := l.battles[bid]
	if !ok {
		return
	}
	b := rt.state

	battle.Tick(b, float64(l.config.BattleTickMs))

	if b.BroadcastTimerMs <= 0 {
		l.broadcastBattleUpdate(b)
		b.BroadcastTimerMs = float64(l.config.BattleBroadcastIntervalMs)
	}

	if !b.IsFinished {
		return
	}

	l.finishBattle(bid, rt)
}

// finishBattle :
// Applies loot, pushes the final battle_summary, emits BattleFinished
// (consumed by the AI's adaptation hook and the stats timeline), and
// retires the battle's runtime. The background process backing it
// cannot be stopped synchronously from within its own operation
// callback (Process.Stop blocks on the same internal lock execute()
// holds), so it is stopped from a separate goroutine.
func (l *Loop) finishBattle(bid string, rt *battleRuntime) {
	b := rt.state

	battle.ApplyLoot(b, l.empireResourcesLookup)
	l.broadcastBattleSummary(b)

	if l.bus != nil {
		l.bus.Emit(eventbus.BattleFinished, eventbus.BattleFinishedEvent{
			BattleID:    b.Bid,
			AttackID:    b.AttackID,
			DefenderWon: b.DefenderWon,
		})
	}

	l.attackEngine.Finish(b.AttackID)

	delete(l.battles, bid)
	if rt.proc != nil {
		go rt.proc.Stop()
	}

	if l.log != nil {
		l.log.Trace(logger.Info, "world-loop", fmt.Sprintf("battle %s finished (defender_won=%v)", bid, b.DefenderWon))
	}
}

// empireResourcesLookup :
// Adapts this loop's empire map to internal/battle's ApplyLoot lookup
// signature.
func (l *Loop) empireResourcesLookup(uid string) (battle.EmpireResources, bool) {
	e, ok := l.empires[uid]
	if !ok {
		return nil, false
	}
	return empire.NewView(e, l.registry), true
}

// broadcastBattleUpdate :
// Pushes the battle_update delta of spec.md §6 to every observer of a
// battle, in deterministic cid/shot order.
func (l *Loop) broadcastBattleUpdate(b *battle.BattleState) {
	if l.broadcaster == nil {
		return
	}

	cids := make([]int, 0, len(b.Critters))
	for cid := range b.Critters {
		cids = append(cids, cid)
	}
	sort.Ints(cids)

	critters := make([]map[string]interface{}, 0, len(cids))
	for _, cid := range cids {
		c := b.Critters[cid]
		critters = append(critters, map[string]interface{}{
			"cid":               c.Cid,
			"iid":               c.Iid,
			"health":            c.Health,
			"max_health":        c.MaxHealth,
			"path_progress":     c.PathProgress,
			"slow_remaining_ms": c.SlowRemainingMs,
			"burn_remaining_ms": c.BurnRemainingMs,
		})
	}

	shots := make([]map[string]interface{}, 0, len(b.PendingShots))
	for _, s := range b.PendingShots {
		shots = append(shots, map[string]interface{}{
			"source_sid":    s.SourceSid,
			"target_cid":    s.TargetCid,
			"shot_type":     s.ShotType,
			"path_progress": s.DisplayProgress(),
			"origin_q":      s.OriginQ,
			"origin_r":      s.OriginR,
		})
	}

	l.broadcaster.Broadcast(b.Observers, map[string]interface{}{
		"type":       "battle_update",
		"bid":        b.Bid,
		"elapsed_ms": b.ElapsedMs,
		"critters":   critters,
		"shots":      shots,
	})
}

// broadcastBattleSummary :
// Pushes the final battle_summary of spec.md §6 to every observer.
func (l *Loop) broadcastBattleSummary(b *battle.BattleState) {
	if l.broadcaster == nil {
		return
	}

	l.broadcaster.Broadcast(b.Observers, map[string]interface{}{
		"type":            "battle_summary",
		"bid":             b.Bid,
		"defender_won":    b.DefenderWon,
		"attacker_gains":  b.AttackerGains,
		"defender_losses": b.DefenderLosses,
	})
}
