package empire

// IncreaseLife :
// Spends gold to raise `e.MaxLife` and its current `life` resource by
// `LifeUpgradeAmount`. The cost grows with the empire's current MaxLife
// (rather than a separately-tracked upgrade counter), so repeated calls
// get steadily more expensive without the caller needing to remember
// how many times life was previously raised.
func (en *Engine) IncreaseLife(e *Empire) error {
	cost := en.config.LifeUpgradeBaseCost * (e.MaxLife / en.config.LifeUpgradeAmount)
	if cost < en.config.LifeUpgradeBaseCost {
		cost = en.config.LifeUpgradeBaseCost
	}

	if e.Resources[Gold] < cost {
		return ErrNotEnoughResources
	}

	e.Resources[Gold] -= cost
	e.MaxLife += en.config.LifeUpgradeAmount
	e.Resources[Life] += en.config.LifeUpgradeAmount

	return nil
}
