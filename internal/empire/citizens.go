package empire

import "fmt"

// ErrTooManyCitizensAssigned :
// `ChangeCitizens` was asked to assign more citizens than the empire
// currently owns.
var ErrTooManyCitizensAssigned = fmt.Errorf("citizen distribution exceeds available citizens")

// citizenUpgradeCost :
// The cost of the Nth additional citizen (1-indexed), growing
// geometrically from `CitizenUpgradeBaseCost`.
func (en *Engine) citizenUpgradeCost(e *Empire) float64 {
	n := float64(e.CitizenCount())
	cost := en.config.CitizenUpgradeBaseCost
	for i := 0.0; i < n; i++ {
		cost *= en.config.CitizenUpgradeGrowth
	}
	return cost
}

// UpgradeCitizen :
// Buys one untyped citizen for `e`, at a gold cost that scales with how
// many citizens it already has. The new citizen is unassigned until a
// subsequent `ChangeCitizens` call gives it a role.
func (en *Engine) UpgradeCitizen(e *Empire) error {
	cost := en.citizenUpgradeCost(e)
	if e.Resources[Gold] < cost {
		return ErrNotEnoughResources
	}

	e.Resources[Gold] -= cost
	e.UnassignedCitizens++

	return nil
}

// ChangeCitizens :
// Reassigns the empire's citizens to the roles named in `distribution`.
// The sum of the distribution must not exceed the empire's total citizen
// count; any shortfall becomes (or remains) unassigned.
func (en *Engine) ChangeCitizens(e *Empire, distribution map[CitizenRole]int) error {
	total := e.CitizenCount()

	assigned := 0
	for _, n := range distribution {
		if n < 0 {
			return fmt.Errorf("negative citizen count for role")
		}
		assigned += n
	}

	if assigned > total {
		return ErrTooManyCitizensAssigned
	}

	e.Citizens = make(map[CitizenRole]int, len(distribution))
	for role, n := range distribution {
		e.Citizens[role] = n
	}
	e.UnassignedCitizens = total - assigned

	return nil
}
