// Package stats implements the social/ranking layer supplemented from
// `gameserver/engine/statistics.py`: the Total Achievement Index (TAI)
// score, the hall-of-fame ranking and win-condition checks it feeds,
// and a timeline feed of notable per-empire events. The GLOSSARY leaves
// this as a stub ("the concrete meaning... is left to the
// implementation"); this package is that concrete meaning.
package stats

import "github.com/spf13/viper"

// configuration :
// Tunables for the TAI formula's bonus weights, read once from viper
// keys under "Stats.*". The formula's base term
// (build_progress + research_progress + structure_costs*3) is taken
// verbatim from statistics.py and is not itself configurable.
//
// The `ArtefactWeight` is the fractional TAI bonus contributed by each
// artefact the empire holds.
//
// The `CitizenWeight` is the fractional TAI bonus contributed by each
// citizen (assigned or not) the empire has.
//
// The `TimelineCapacity` bounds how many entries the global timeline
// feed retains before the oldest are dropped.
//
// The `TreasureHunterArtefactCount` is the number of distinct artefacts
// an empire must hold simultaneously to be awarded the Treasure Hunter
// condition (see Service.WinCondition's documented simplification: the
// original's "held for M days" duration requirement is not tracked).
type configuration struct {
	ArtefactWeight   float64
	CitizenWeight    float64
	TimelineCapacity int

	TreasureHunterArtefactCount int
}

func parseConfiguration() configuration {
	config := configuration{
		ArtefactWeight:   0.05,
		CitizenWeight:    0.02,
		TimelineCapacity: 200,

		TreasureHunterArtefactCount: 3,
	}

	if viper.IsSet("Stats.ArtefactWeight") {
		config.ArtefactWeight = viper.GetFloat64("Stats.ArtefactWeight")
	}
	if viper.IsSet("Stats.CitizenWeight") {
		config.CitizenWeight = viper.GetFloat64("Stats.CitizenWeight")
	}
	if viper.IsSet("Stats.TimelineCapacity") {
		config.TimelineCapacity = viper.GetInt("Stats.TimelineCapacity")
	}
	if viper.IsSet("Stats.TreasureHunterArtefactCount") {
		config.TreasureHunterArtefactCount = viper.GetInt("Stats.TreasureHunterArtefactCount")
	}

	return config
}
