package empire

import "github.com/empiresrv/empireserver/internal/hexcoord"

// CitizenRole :
// The three assignable citizen roles. An untyped citizen bought via
// `UpgradeCitizen` does not belong to any role until `ChangeCitizens`
// assigns it.
type CitizenRole string

// Defines the assignable citizen roles.
const (
	Merchant  CitizenRole = "merchant"
	Scientist CitizenRole = "scientist"
	Artist    CitizenRole = "artist"
)

// Gold and Culture name the two resources generated passively by
// citizens; Life is the resource a battle's finish handler decrements
// and is never passively generated.
const (
	Gold    = "gold"
	Culture = "culture"
	Life    = "life"
)

// Structure :
// A built defensive structure placed on an owned hex. Numeric stats are
// copied from the catalogue item at placement time so that later catalogue
// changes never retroactively alter structures already on the field.
//
// The `FocusCid` and `ReloadRemainingMs` are transient battle-runtime
// state: they are meaningless outside an active battle and are reset to
// zero whenever a structure is snapshotted into persistence.
type Structure struct {
	Sid      string
	Iid      string
	Position hexcoord.Hex

	Damage    float64
	Range     int
	ReloadMs  int
	ShotSpeed float64
	ShotType  string

	FocusCid          string
	ReloadRemainingMs int
}

// CritterWave :
// One ordered entry of an Army: a batch of a single critter type, with
// the bookkeeping a battle runtime needs to spawn it over time.
type CritterWave struct {
	WaveID      string
	CritterIid  string
	Slots       int
	Spawned     int
	NextSpawnMs int
}

// Army :
// A named, ordered collection of critter waves owned by a player, used
// as the template for an attacking force when an Attack is dispatched.
//
// The `Direction` is an opaque client-facing label (e.g. a compass
// heading on the world map) the core never interprets; it is carried
// through purely so a session layer can echo it back in military_response.
type Army struct {
	Aid       string
	Owner     string
	Name      string
	Direction string
	Waves     []CritterWave
}

// SpyArmy :
// A lightweight army variant used only for espionage attacks: it never
// reaches C6, so it carries no wave bookkeeping, only enough identity to
// be referenced by an Attack.
type SpyArmy struct {
	Aid   string
	Owner string
	Name  string
}

// Empire :
// The complete owned state of one player. Holds every resource,
// building/knowledge progress slot, citizen, structure, army and
// artefact belonging to the player, plus the aggregated effect map
// derived from everything it has completed.
//
// The `Resources` map holds gold/culture/life and any other resource
// name the catalogue defines, each as a running float64 total.
//
// The `Buildings` and `Knowledge` map an iid to its remaining effort
// (0 meaning completed). Invariant I2: an iid is a key of at most one of
// these two maps.
//
// The `BuildQueue`/`ResearchQueue` name the at-most-one iid actively
// progressing in each category; invariant I3 requires that, if set, the
// named iid have `remaining > 0` in the matching map.
//
// The `Citizens` counts assigned citizens per role; `UnassignedCitizens`
// holds citizens bought but not yet assigned a role.
//
// The `Effects` is the aggregated effect map, rebuilt from scratch by
// `RecalculateEffects` whenever the completed set changes (invariant I4).
//
// The `Structures` map is keyed by sid; invariant I5 requires pairwise
// distinct positions, all within the empire's owned buildable tiles.
//
// The `HexMap` records the tile type the empire owns at each "q,r" key;
// see spec.md §3. It is kept as a string-keyed map (rather than
// `hexcoord.Hex`) because it is the literal shape persisted to and from
// snapshots.
type Empire struct {
	UID  string
	Name string

	Resources map[string]float64

	Buildings map[string]float64
	Knowledge map[string]float64

	BuildQueue    string
	ResearchQueue string

	Citizens           map[CitizenRole]int
	UnassignedCitizens int

	Effects map[string]float64

	Structures map[string]Structure
	Armies     []Army
	SpyArmies  []SpyArmy
	Artefacts  []string

	HexMap map[string]string

	MaxLife float64
}

// New :
// Builds an empty empire for a freshly-created player, owning the given
// bootstrap item at zero remaining effort (i.e. already completed) and
// starting resources.
func New(uid, name, bootstrapIid string, startingResources map[string]float64, maxLife float64) *Empire {
	e := &Empire{
		UID:        uid,
		Name:       name,
		Resources:  make(map[string]float64),
		Buildings:  map[string]float64{bootstrapIid: 0},
		Knowledge:  make(map[string]float64),
		Citizens:   make(map[CitizenRole]int),
		Effects:    make(map[string]float64),
		Structures: make(map[string]Structure),
		HexMap:     make(map[string]string),
		MaxLife:    maxLife,
	}

	for res, amount := range startingResources {
		e.Resources[res] = amount
	}
	if _, ok := e.Resources[Life]; !ok {
		e.Resources[Life] = maxLife
	}

	return e
}

// CompletedSet :
// Returns the set of iids this empire has finished (remaining == 0 in
// either Buildings or Knowledge). Used by `RequirementsMet` checks and
// by the AI's era-appropriate army synthesis.
func (e *Empire) CompletedSet() map[string]struct{} {
	out := make(map[string]struct{})
	for iid, remaining := range e.Buildings {
		if remaining == 0 {
			out[iid] = struct{}{}
		}
	}
	for iid, remaining := range e.Knowledge {
		if remaining == 0 {
			out[iid] = struct{}{}
		}
	}
	return out
}

// CitizenCount :
// Returns the total number of citizens (assigned or not) this empire
// has. Used by the AI's "citizen >= trigger.citizen" scripted-wave
// check.
func (e *Empire) CitizenCount() int {
	total := e.UnassignedCitizens
	for _, n := range e.Citizens {
		total += n
	}
	return total
}
