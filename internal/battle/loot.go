package battle

import "golang.org/x/exp/slices"

// EmpireResources :
// The narrow view this package needs of an empire's mutable state to
// apply post-battle loot: its resource map, its knowledge progress map
// (iid -> remaining effort, 0 = complete), its held artefact list, and
// the registry-known effort of a given knowledge iid (needed to compute
// the loss amount, since the map only stores *remaining*, always 0 for a
// completed item).
type EmpireResources interface {
	Resources() map[string]float64
	CompletedKnowledge() []string
	KnowledgeEffort(iid string) float64
	LoseKnowledgeEffort(iid string, amount float64)
	Artefacts() []string
	TransferArtefact(iid string, toUID string)
}

// ApplyLoot :
// Run once, outside the simulator loop, after a battle's `IsFinished`
// becomes true. Moves the accumulated resource deltas into the attacker
// and defender empires; on a defender loss, additionally applies
// probabilistic knowledge loss, culture loss, and artefact theft.
//
// `lookup` resolves a uid to the narrow EmpireResources view above; a uid
// with no resolvable empire (e.g. an AI opponent with no persisted
// state) is skipped rather than erroring, since loot application must
// never abort partway through.
func ApplyLoot(b *BattleState, lookup func(uid string) (EmpireResources, bool)) {
	if defender, ok := lookup(b.DefenderUID); ok {
		res := defender.Resources()
		for key, amount := range b.DefenderLosses {
			res[key] -= amount
		}
	}

	for uid, gains := range b.AttackerGains {
		attacker, ok := lookup(uid)
		if !ok {
			continue
		}
		res := attacker.Resources()
		for key, amount := range gains {
			res[key] += amount
		}
	}

	if b.DefenderWon {
		return
	}

	defender, ok := lookup(b.DefenderUID)
	if !ok {
		return
	}
	applyDefeatPenalties(b, defender)
}

// applyDefeatPenalties :
// Applied only when the defender lost: a random knowledge item loses a
// random fraction of its effort, culture is reduced by a random
// fraction, and each artefact independently rolls its steal chance.
func applyDefeatPenalties(b *BattleState, defender EmpireResources) {
	knowledge := append([]string(nil), defender.CompletedKnowledge()...)
	slices.Sort(knowledge)
	if len(knowledge) > 0 {
		iid := knowledge[b.rng.Intn(len(knowledge))]
		frac := b.config.MinLoseKnowledge + b.rng.Float64()*(b.config.MaxLoseKnowledge-b.config.MinLoseKnowledge)
		defender.LoseKnowledgeEffort(iid, defender.KnowledgeEffort(iid)*frac)
	}

	cultureFrac := b.config.MinLoseCulture + b.rng.Float64()*(b.config.MaxLoseCulture-b.config.MinLoseCulture)
	res := defender.Resources()
	res["culture"] -= res["culture"] * cultureFrac

	attackers := b.AttackerUIDs
	if len(attackers) == 0 {
		return
	}

	for _, iid := range append([]string(nil), defender.Artefacts()...) {
		if b.rng.Float64() > b.config.ArtefactStealChance {
			continue
		}
		winner := attackers[b.rng.Intn(len(attackers))]
		defender.TransferArtefact(iid, winner)
	}
}
