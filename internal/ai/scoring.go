package ai

import "github.com/empiresrv/empireserver/internal/items"

// DefenderView :
// The narrow slice of an Empire's state scoring and synthesis need.
// Kept as an interface so this package never imports internal/empire
// directly (the world loop wires the concrete adapter).
type DefenderView interface {
	UID() string
	CompletedBuildings() []string
	CompletedKnowledge() []string
	Culture() float64
	StructureCount() int
	CitizenCount() int
	CompletedSet() map[string]struct{}
}

// PlayerPower :
// Computes spec.md §4.8's scoring formula: a weighted sum of completed
// building effort, completed research effort, culture, and structure
// tile count (each structure counts as 1000 tiles' worth before its
// weight is applied), floored at `MinPlayerPower` so that new players
// remain attackable.
func PlayerPower(d DefenderView, registry *items.Registry, config configuration) float64 {
	var buildingEffort, researchEffort float64

	for _, iid := range d.CompletedBuildings() {
		it, err := registry.Get(iid)
		if err != nil {
			continue
		}
		buildingEffort += it.Effort
	}
	for _, iid := range d.CompletedKnowledge() {
		it, err := registry.Get(iid)
		if err != nil {
			continue
		}
		researchEffort += it.Effort
	}

	power := buildingEffort*config.BuildingEffortWeight +
		researchEffort*config.ResearchEffortWeight +
		d.Culture()*config.CultureWeight +
		float64(d.StructureCount()*1000)*config.StructureTileWeight

	if power < config.MinPlayerPower {
		power = config.MinPlayerPower
	}
	return power
}
