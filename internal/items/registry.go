package items

// Registry :
// Describes the read-only catalogue of items available in the game.
// The registry is constructed once (typically from a config file loaded
// at startup) and is never mutated afterwards: every lookup operation is
// consequently safe to call concurrently without any locking.
//
// The `items` map indexes every catalogue entry by its iid.
type Registry struct {
	items map[string]Item
}

// NewRegistry :
// Builds a registry from an already-assembled set of items. The caller
// owns validating the requirement DAG before constructing the registry;
// `NewRegistry` itself performs no I/O (config loading is out of scope,
// see SPEC_FULL.md's ambient stack).
func NewRegistry(catalogue []Item) *Registry {
	idx := make(map[string]Item, len(catalogue))
	for _, it := range catalogue {
		idx[it.Iid] = it.Cloned()
	}
	return &Registry{items: idx}
}

// Get :
// Looks up a single item by iid. Returns `ErrUnknownItem` if it is not
// part of the catalogue. The returned item is a defensive copy.
func (r *Registry) Get(iid string) (Item, error) {
	it, ok := r.items[iid]
	if !ok {
		return Item{}, ErrUnknownItem
	}
	return it.Cloned(), nil
}

// FilterByKind :
// Returns every catalogue item of the given kind, in no particular
// order (callers needing a stable order should sort by `Iid`).
func (r *Registry) FilterByKind(kind Kind) []Item {
	out := make([]Item, 0)
	for _, it := range r.items {
		if it.Kind == kind {
			out = append(out, it.Cloned())
		}
	}
	return out
}

// RequirementsMet :
// Returns true if every iid in the item's requirement set is present in
// `completed`. An unknown iid is treated as having no requirements met.
func (r *Registry) RequirementsMet(iid string, completed map[string]struct{}) bool {
	it, ok := r.items[iid]
	if !ok {
		return false
	}
	for req := range it.Requirements {
		if _, done := completed[req]; !done {
			return false
		}
	}
	return true
}

// AvailableCritters :
// Returns every critter item whose requirements are satisfied by the
// given completed set — i.e. the critters an empire (or an AI synthesizing
// an attack against it) could field given what it has finished building.
func (r *Registry) AvailableCritters(completed map[string]struct{}) []Item {
	out := make([]Item, 0)
	for _, it := range r.items {
		if it.Kind != Critter {
			continue
		}
		if r.RequirementsMet(it.Iid, completed) {
			out = append(out, it.Cloned())
		}
	}
	return out
}

// EffortForLevel :
// Returns the effort required to complete `iid` at a given (1-indexed)
// level, scaling the catalogue's base effort geometrically. The base
// spec.md data model only carries a single flat `Effort` per item; this
// is a forward-compatible hook for tiered research/building levels
// (grounded on original_source/python_server/engine/upgrade_provider.py's
// provider abstraction) that falls back to the flat effort for level 1.
func (r *Registry) EffortForLevel(iid string, level int) (float64, error) {
	it, ok := r.items[iid]
	if !ok {
		return 0, ErrUnknownItem
	}
	if level <= 1 {
		return it.Effort, nil
	}

	const perLevelGrowth = 1.35
	effort := it.Effort
	for i := 1; i < level; i++ {
		effort *= perLevelGrowth
	}
	return effort, nil
}
