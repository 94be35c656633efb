package empire

import (
	"fmt"

	"github.com/empiresrv/empireserver/internal/items"
)

// ErrRequirementsNotMet :
// The item's requirement set is not a subset of the empire's completed
// set.
var ErrRequirementsNotMet = fmt.Errorf("requirements not met")

// ErrAlreadyStartedOrCompleted :
// The item is already present (started or completed) in either the
// buildings or knowledge map.
var ErrAlreadyStartedOrCompleted = fmt.Errorf("item already started or completed")

// ErrQueueBusy :
// The relevant queue (build or research) already holds another item.
var ErrQueueBusy = fmt.Errorf("queue is busy")

// ErrNotEnoughResources :
// The empire's resources do not cover the item's cost.
var ErrNotEnoughResources = fmt.Errorf("not enough resources")

// isBuildingKind :
// Buildings and structures/wonders occupy the build queue; knowledge
// occupies the research queue. Everything else the catalogue can name
// (critters, artefacts) is not buildable through this path.
func isBuildingKind(k string) bool {
	return k == "building" || k == "structure" || k == "wonder"
}

// BuildItem :
// Starts building or researching `iid` on `e`. Preconditions are
// evaluated in the fixed order spec.md §4.4 mandates; the first one that
// fails returns its dedicated error and leaves the empire completely
// unchanged (S2, and the "build_item is idempotent under failure"
// property of spec.md §8).
//
// On success: cost is deducted once, an entry is installed with
// `remaining = effort`, and the matching queue is set. Zero-effort items
// complete synchronously, skip the queue entirely, and apply their
// effects immediately.
func (en *Engine) BuildItem(e *Empire, iid string) error {
	it, err := en.registry.Get(iid)
	if err != nil {
		return items.ErrUnknownItem
	}

	if !en.registry.RequirementsMet(iid, e.CompletedSet()) {
		return ErrRequirementsNotMet
	}

	if _, inBuildings := e.Buildings[iid]; inBuildings {
		return ErrAlreadyStartedOrCompleted
	}
	if _, inKnowledge := e.Knowledge[iid]; inKnowledge {
		return ErrAlreadyStartedOrCompleted
	}

	building := isBuildingKind(string(it.Kind))
	if !building && string(it.Kind) != "knowledge" {
		return fmt.Errorf("item %q of kind %q is not buildable", iid, it.Kind)
	}

	if building {
		if e.BuildQueue != "" {
			return ErrQueueBusy
		}
	} else {
		if e.ResearchQueue != "" {
			return ErrQueueBusy
		}
	}

	for resource, amount := range it.Cost {
		if e.Resources[resource] < amount {
			return ErrNotEnoughResources
		}
	}

	// All preconditions satisfied: commit the mutation.
	for resource, amount := range it.Cost {
		e.Resources[resource] -= amount
	}

	if building {
		e.Buildings[iid] = it.Effort
	} else {
		e.Knowledge[iid] = it.Effort
	}

	if it.Effort == 0 {
		if building {
			e.Buildings[iid] = 0
		} else {
			e.Knowledge[iid] = 0
		}
		en.completeItem(e, iid)
		return nil
	}

	if building {
		e.BuildQueue = iid
	} else {
		e.ResearchQueue = iid
	}

	return nil
}
