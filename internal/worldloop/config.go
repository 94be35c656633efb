// Package worldloop drives the coarse (~1s) tick over every empire and
// attack, and spawns/retires the fine-tick battle simulators of
// internal/battle on demand. It is the single place in the core that
// ever holds both an attacker's and a defender's empire at once (for
// loot application), per spec.md §5's ownership rule.
package worldloop

import "github.com/spf13/viper"

// configuration :
// Tunables for the world loop's own cadence and the battle simulators it
// spawns, read once from viper keys under "WorldLoop.*".
//
// The `StepLengthMs` is the coarse tick period driving empires and
// attacks.
//
// The `BattleTickMs` is the fine tick period driving every active
// battle's `Tick`.
//
// The `BattleBroadcastIntervalMs` is how often a running battle pushes a
// `battle_update` delta to its observers.
type configuration struct {
	StepLengthMs              int
	BattleTickMs              int
	BattleBroadcastIntervalMs int
}

func parseConfiguration() configuration {
	config := configuration{
		StepLengthMs:              1000,
		BattleTickMs:              15,
		BattleBroadcastIntervalMs: 250,
	}

	if viper.IsSet("WorldLoop.StepLengthMs") {
		config.StepLengthMs = viper.GetInt("WorldLoop.StepLengthMs")
	}
	if viper.IsSet("WorldLoop.BattleTickMs") {
		config.BattleTickMs = viper.GetInt("WorldLoop.BattleTickMs")
	}
	if viper.IsSet("WorldLoop.BattleBroadcastIntervalMs") {
		config.BattleBroadcastIntervalMs = viper.GetInt("WorldLoop.BattleBroadcastIntervalMs")
	}

	return config
}
