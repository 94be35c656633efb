// Package attack implements the attack state machine bridging the
// world loop's coarse tick and the battle runtime's fine tick:
// TRAVELLING -> IN_SIEGE -> IN_BATTLE -> FINISHED.
package attack

import "github.com/spf13/viper"

// configuration :
// Tunables for the attack state machine, mirroring spec.md §4.5 and §8's
// literal S3 scenario (`base_travel = 100s`, `base_siege = 30s`).
//
// The `BaseTravelSeconds` and `BaseSiegeSeconds` are the default travel
// and siege durations before any empire effect offset is applied.
type configuration struct {
	BaseTravelSeconds float64
	BaseSiegeSeconds  float64
}

func parseConfiguration() configuration {
	config := configuration{
		BaseTravelSeconds: 100,
		BaseSiegeSeconds:  30,
	}

	if viper.IsSet("Attack.BaseTravelSeconds") {
		config.BaseTravelSeconds = viper.GetFloat64("Attack.BaseTravelSeconds")
	}
	if viper.IsSet("Attack.BaseSiegeSeconds") {
		config.BaseSiegeSeconds = viper.GetFloat64("Attack.BaseSiegeSeconds")
	}

	return config
}
