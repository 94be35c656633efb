// Package battle implements the fine-tick tower-defense simulator: one
// independent BattleState per active battle, advanced by a deterministic
// tick(battle, dtMs) that a caller drives at roughly 15 ms granularity.
package battle

import "github.com/spf13/viper"

// configuration :
// Tunables for the battle runtime, read once at engine construction from
// viper keys under "Battle.*".
//
// The `MinKeepAliveMs` is the minimum elapsed time before either finish
// condition may fire (spec.md §4.6), so that even a trivially lost or
// won battle renders a visible sequence to observers.
//
// The `InterWaveDelayMs` is the minimum pause, once a wave has spawned
// its last critter, before the next wave starts spawning; a next wave
// whose own spawn timer is already longer keeps it.
//
// The `DefenderCritterReward` is the gold credited to the defender for
// each critter killed by a structure or by burn damage.
//
// The `SplashRadius` bounds how many additional critters a SPLASH shot's
// sub-shots may hit, measured in hex distance from the impact tile.
//
// The `SplashSubShotFlightMs` is the fixed flight time given to each
// splash sub-shot.
//
// The `MinLoseKnowledge`/`MaxLoseKnowledge` and `MinLoseCulture`/
// `MaxLoseCulture` bound the fraction of a random knowledge item's
// effort, respectively of culture, lost by a defeated defender.
//
// The `ArtefactStealChance` is the per-artefact probability of it
// transferring to a random attacker on defeat.
type configuration struct {
	MinKeepAliveMs        float64
	InterWaveDelayMs      float64
	DefenderCritterReward float64
	SplashRadius          int
	SplashSubShotFlightMs float64
	MinLoseKnowledge      float64
	MaxLoseKnowledge      float64
	MinLoseCulture        float64
	MaxLoseCulture        float64
	ArtefactStealChance   float64
}

func parseConfiguration() configuration {
	config := configuration{
		MinKeepAliveMs:        10000,
		InterWaveDelayMs:      3000,
		DefenderCritterReward: 1,
		SplashRadius:          1,
		SplashSubShotFlightMs: 50,
		MinLoseKnowledge:      0.05,
		MaxLoseKnowledge:      0.15,
		MinLoseCulture:        0.05,
		MaxLoseCulture:        0.15,
		ArtefactStealChance:   0.1,
	}

	if viper.IsSet("Battle.MinKeepAliveMs") {
		config.MinKeepAliveMs = viper.GetFloat64("Battle.MinKeepAliveMs")
	}
	if viper.IsSet("Battle.InterWaveDelayMs") {
		config.InterWaveDelayMs = viper.GetFloat64("Battle.InterWaveDelayMs")
	}
	if viper.IsSet("Battle.DefenderCritterReward") {
		config.DefenderCritterReward = viper.GetFloat64("Battle.DefenderCritterReward")
	}
	if viper.IsSet("Battle.SplashRadius") {
		config.SplashRadius = viper.GetInt("Battle.SplashRadius")
	}
	if viper.IsSet("Battle.SplashSubShotFlightMs") {
		config.SplashSubShotFlightMs = viper.GetFloat64("Battle.SplashSubShotFlightMs")
	}
	if viper.IsSet("Battle.MinLoseKnowledge") {
		config.MinLoseKnowledge = viper.GetFloat64("Battle.MinLoseKnowledge")
	}
	if viper.IsSet("Battle.MaxLoseKnowledge") {
		config.MaxLoseKnowledge = viper.GetFloat64("Battle.MaxLoseKnowledge")
	}
	if viper.IsSet("Battle.MinLoseCulture") {
		config.MinLoseCulture = viper.GetFloat64("Battle.MinLoseCulture")
	}
	if viper.IsSet("Battle.MaxLoseCulture") {
		config.MaxLoseCulture = viper.GetFloat64("Battle.MaxLoseCulture")
	}
	if viper.IsSet("Battle.ArtefactStealChance") {
		config.ArtefactStealChance = viper.GetFloat64("Battle.ArtefactStealChance")
	}

	return config
}
