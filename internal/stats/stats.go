package stats

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/empiresrv/empireserver/internal/empire"
	"github.com/empiresrv/empireserver/internal/eventbus"
	"github.com/empiresrv/empireserver/internal/items"
)

// Entry :
// One hall-of-fame row: an empire's identity and its current TAI.
type Entry struct {
	UID  string
	Name string
	TAI  float64
}

// TimelineEvent :
// One entry of the global "notable things happened" feed backing
// `timeline_request`. `UID` is the empire the event concerns; `Kind`
// is one of the eventbus.Kind values this package subscribes to.
type TimelineEvent struct {
	UID    string
	Kind   string
	Detail string
}

// Service :
// Owns the TAI formula, the timeline feed, and per-uid preferences.
// TAI itself is never cached: `Compute` is a pure function of a live
// `*empire.Empire`, so every hall_of_fame/userinfo query is always
// current without needing an event-driven invalidation path. The bus
// subscription below exists only to grow the timeline, which (unlike
// TAI) is genuinely cumulative server-side state.
type Service struct {
	config   configuration
	registry *items.Registry

	mu        sync.Mutex
	timeline  []TimelineEvent
	preferences map[string]map[string]string
}

// NewService :
// Builds a stats service and subscribes it to the bus events that feed
// the timeline (ItemCompleted, BattleFinished).
func NewService(registry *items.Registry, bus *eventbus.Bus) *Service {
	s := &Service{
		config:      parseConfiguration(),
		registry:    registry,
		preferences: make(map[string]map[string]string),
	}

	if bus != nil {
		bus.Subscribe(eventbus.ItemCompleted, s.onItemCompleted)
		bus.Subscribe(eventbus.BattleFinished, s.onBattleFinished)
	}

	return s
}

func (s *Service) onItemCompleted(event interface{}) {
	ev, ok := event.(eventbus.ItemCompletedEvent)
	if !ok {
		return
	}
	s.record(ev.EmpireUID, string(eventbus.ItemCompleted), fmt.Sprintf("completed %s", ev.Iid))
}

func (s *Service) onBattleFinished(event interface{}) {
	ev, ok := event.(eventbus.BattleFinishedEvent)
	if !ok {
		return
	}
	outcome := "lost"
	if ev.DefenderWon {
		outcome = "won"
	}
	s.record(ev.BattleID, string(eventbus.BattleFinished), fmt.Sprintf("battle %s %s", ev.BattleID, outcome))
}

// record :
// Appends a timeline entry, trimming the oldest once the configured
// capacity is exceeded.
func (s *Service) record(uid, kind, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timeline = append(s.timeline, TimelineEvent{UID: uid, Kind: kind, Detail: detail})
	if over := len(s.timeline) - s.config.TimelineCapacity; over > 0 {
		s.timeline = s.timeline[over:]
	}
}

// Timeline :
// Returns the most recent `limit` timeline entries concerning `uid`
// (or every empire, if `uid` is empty), newest first.
func (s *Service) Timeline(uid string, limit int) []TimelineEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TimelineEvent, 0, limit)
	for i := len(s.timeline) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.timeline[i]
		if uid != "" && e.UID != uid {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Preferences / SetPreferences :
// A minimal per-uid key/value preferences store. Persistence of these
// is out of scope (spec.md's account DB schema is a collaborator
// interface only), so this is process-lifetime only.
func (s *Service) Preferences(uid string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.preferences[uid]))
	for k, v := range s.preferences[uid] {
		out[k] = v
	}
	return out
}

func (s *Service) SetPreferences(uid string, changes map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, ok := s.preferences[uid]
	if !ok {
		prefs = make(map[string]string)
		s.preferences[uid] = prefs
	}
	for k, v := range changes {
		prefs[k] = v
	}
}

// Compute :
// The TAI formula from statistics.py:
//
//	sqrt(build_progress + research_progress + structure_costs*3) * (1 + artefact_bonus + citizen_bonus)
//
// `build_progress`/`research_progress` sum the catalogue Effort of
// every completed building/knowledge item (0 for an incomplete one,
// since its iid is absent from CompletedSet). `structure_costs` sums
// every fielded structure's original catalogue cost (in any resource,
// added together). `artefact_bonus`/`citizen_bonus` are the configured
// per-unit weights times the empire's artefact/citizen counts.
func (s *Service) Compute(e *empire.Empire) float64 {
	completed := e.CompletedSet()

	buildProgress := 0.0
	researchProgress := 0.0
	for iid := range completed {
		it, err := s.registry.Get(iid)
		if err != nil {
			continue
		}
		switch it.Kind {
		case items.Building:
			buildProgress += it.Effort
		case items.Knowledge:
			researchProgress += it.Effort
		}
	}

	structureCosts := 0.0
	for _, st := range e.Structures {
		it, err := s.registry.Get(st.Iid)
		if err != nil {
			continue
		}
		for _, amount := range it.Cost {
			structureCosts += amount
		}
	}

	artefactBonus := float64(len(e.Artefacts)) * s.config.ArtefactWeight
	citizenBonus := float64(e.CitizenCount()) * s.config.CitizenWeight

	base := buildProgress + researchProgress + structureCosts*3
	return math.Sqrt(math.Max(0, base)) * (1 + artefactBonus + citizenBonus)
}

// HallOfFame :
// Ranks the given empires by descending TAI, keeping at most `limit`.
func (s *Service) HallOfFame(empires []*empire.Empire, limit int) []Entry {
	entries := make([]Entry, 0, len(empires))
	for _, e := range empires {
		entries = append(entries, Entry{UID: e.UID, Name: e.Name, TAI: s.Compute(e)})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TAI != entries[j].TAI {
			return entries[i].TAI > entries[j].TAI
		}
		return entries[i].UID < entries[j].UID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// WinCondition :
// Checks the subset of statistics.py's win conditions that are
// decidable from instantaneous empire state: World Wonder (a completed
// Wonder-kind item) and Treasure Hunter (holding at least
// `TreasureHunterArtefactCount` distinct artefacts right now). Defense
// God (undefeated for 28 days) and Prosperity (highest TAI after the
// apocalypse phase) both require tracking elapsed wall-clock duration
// this core has no component owning (see DESIGN.md); they are left
// unevaluated here rather than approximated.
func (s *Service) WinCondition(e *empire.Empire) (string, bool) {
	completed := e.CompletedSet()
	for iid := range completed {
		it, err := s.registry.Get(iid)
		if err == nil && it.Kind == items.Wonder {
			return "world_wonder", true
		}
	}

	if len(e.Artefacts) >= s.config.TreasureHunterArtefactCount {
		return "treasure_hunter", true
	}

	return "", false
}
