package empire

import "github.com/empiresrv/empireserver/internal/items"

// View :
// Adapts an *Empire (plus the catalogue needed to resolve knowledge
// effort) to the narrow interfaces internal/attack and internal/battle
// depend on, so neither of those packages needs to import this one.
// Constructed by the world loop at the point it wires an empire into an
// attack or a battle.
type View struct {
	e        *Empire
	registry *items.Registry
}

// NewView :
// Builds an adapter over `e`, resolving catalogue lookups through
// `registry`.
func NewView(e *Empire, registry *items.Registry) *View {
	return &View{e: e, registry: registry}
}

// Effect :
// Implements internal/attack's EffectSource: the aggregated value of a
// named effect, or 0 if the empire has never completed anything
// contributing to it.
func (v *View) Effect(uid, key string) float64 {
	return v.e.Effects[key]
}

// Resources :
// Implements internal/battle's EmpireResources.
func (v *View) Resources() map[string]float64 {
	return v.e.Resources
}

// CompletedKnowledge :
// Implements internal/battle's EmpireResources: every knowledge iid with
// zero remaining effort.
func (v *View) CompletedKnowledge() []string {
	var out []string
	for iid, remaining := range v.e.Knowledge {
		if remaining == 0 {
			out = append(out, iid)
		}
	}
	return out
}

// KnowledgeEffort :
// Implements internal/battle's EmpireResources: the catalogue's original
// effort for a knowledge item, needed because the empire's own map only
// ever stores *remaining* (always 0 once completed).
func (v *View) KnowledgeEffort(iid string) float64 {
	it, err := v.registry.Get(iid)
	if err != nil {
		return 0
	}
	return it.Effort
}

// LoseKnowledgeEffort :
// Implements internal/battle's EmpireResources: re-opens a completed
// knowledge item's progress by the given amount, reinstating it in the
// research queue's remaining-effort map. A knowledge item can only ever
// move backward this way through battle loot, never through `BuildItem`.
func (v *View) LoseKnowledgeEffort(iid string, amount float64) {
	if amount <= 0 {
		return
	}
	v.e.Knowledge[iid] = amount
}

// Artefacts :
// Implements internal/battle's EmpireResources.
func (v *View) Artefacts() []string {
	return v.e.Artefacts
}

// UID :
// Implements internal/ai's DefenderView.
func (v *View) UID() string {
	return v.e.UID
}

// CompletedBuildings :
// Implements internal/ai's DefenderView: every building iid with zero
// remaining effort.
func (v *View) CompletedBuildings() []string {
	var out []string
	for iid, remaining := range v.e.Buildings {
		if remaining == 0 {
			out = append(out, iid)
		}
	}
	return out
}

// Culture :
// Implements internal/ai's DefenderView.
func (v *View) Culture() float64 {
	return v.e.Resources[Culture]
}

// StructureCount :
// Implements internal/ai's DefenderView.
func (v *View) StructureCount() int {
	return len(v.e.Structures)
}

// CitizenCount :
// Implements internal/ai's DefenderView, delegating to *Empire.
func (v *View) CitizenCount() int {
	return v.e.CitizenCount()
}

// CompletedSet :
// Implements internal/ai's DefenderView, delegating to *Empire.
func (v *View) CompletedSet() map[string]struct{} {
	return v.e.CompletedSet()
}

// TransferArtefact :
// Implements internal/battle's EmpireResources: removes `iid` from this
// empire's artefact list. The receiving empire's own list is appended to
// by the world loop, which holds both empires and is the only place that
// legitimately mutates two empires in one step.
func (v *View) TransferArtefact(iid string, toUID string) {
	for i, a := range v.e.Artefacts {
		if a == iid {
			v.e.Artefacts = append(v.e.Artefacts[:i], v.e.Artefacts[i+1:]...)
			return
		}
	}
}
