// Package ai implements the scripted/adaptive opponent (C8): it scores
// defending empires, synthesizes attacking armies against them, fires
// scripted waves on item completion, dispatches attacks through
// internal/attack, and adapts its own aggressiveness from battle
// outcomes.
package ai

import "github.com/spf13/viper"

// UID :
// The reserved empire uid conventionally used for the AI opponent.
const UID = "0"

// configuration :
// Tunables for scoring, army synthesis and adaptation, read once from
// viper keys under "AI.*".
type configuration struct {
	// Scoring weights.
	BuildingEffortWeight  float64
	ResearchEffortWeight  float64
	CultureWeight         float64
	StructureTileWeight   float64
	MinPlayerPower        float64

	// Army synthesis.
	WaveCount         int
	MinSlots          int
	MaxSlots          int
	SpeedBias         float64
	ArmorBias         float64
	SpeedThreshold    float64
	InitialWaveDelayMs float64

	// Adaptation.
	WindowSize           int
	TargetWinRate        float64
	AdaptationRate       float64
	PowerMultiplierFloor float64
	PowerMultiplierCap   float64
}

func parseConfiguration() configuration {
	config := configuration{
		BuildingEffortWeight: 1.0,
		ResearchEffortWeight: 1.5,
		CultureWeight:        0.1,
		StructureTileWeight:  1.0,
		MinPlayerPower:       500,

		WaveCount:          5,
		MinSlots:           1,
		MaxSlots:           20,
		SpeedBias:          0.4,
		ArmorBias:          0.3,
		SpeedThreshold:     0.25,
		InitialWaveDelayMs: 3000,

		WindowSize:           10,
		TargetWinRate:        0.5,
		AdaptationRate:       0.08,
		PowerMultiplierFloor: 0.2,
		PowerMultiplierCap:   5.0,
	}

	if viper.IsSet("AI.BuildingEffortWeight") {
		config.BuildingEffortWeight = viper.GetFloat64("AI.BuildingEffortWeight")
	}
	if viper.IsSet("AI.ResearchEffortWeight") {
		config.ResearchEffortWeight = viper.GetFloat64("AI.ResearchEffortWeight")
	}
	if viper.IsSet("AI.CultureWeight") {
		config.CultureWeight = viper.GetFloat64("AI.CultureWeight")
	}
	if viper.IsSet("AI.StructureTileWeight") {
		config.StructureTileWeight = viper.GetFloat64("AI.StructureTileWeight")
	}
	if viper.IsSet("AI.MinPlayerPower") {
		config.MinPlayerPower = viper.GetFloat64("AI.MinPlayerPower")
	}
	if viper.IsSet("AI.WaveCount") {
		config.WaveCount = viper.GetInt("AI.WaveCount")
	}
	if viper.IsSet("AI.MinSlots") {
		config.MinSlots = viper.GetInt("AI.MinSlots")
	}
	if viper.IsSet("AI.MaxSlots") {
		config.MaxSlots = viper.GetInt("AI.MaxSlots")
	}
	if viper.IsSet("AI.SpeedBias") {
		config.SpeedBias = viper.GetFloat64("AI.SpeedBias")
	}
	if viper.IsSet("AI.ArmorBias") {
		config.ArmorBias = viper.GetFloat64("AI.ArmorBias")
	}
	if viper.IsSet("AI.SpeedThreshold") {
		config.SpeedThreshold = viper.GetFloat64("AI.SpeedThreshold")
	}
	if viper.IsSet("AI.InitialWaveDelayMs") {
		config.InitialWaveDelayMs = viper.GetFloat64("AI.InitialWaveDelayMs")
	}
	if viper.IsSet("AI.WindowSize") {
		config.WindowSize = viper.GetInt("AI.WindowSize")
	}
	if viper.IsSet("AI.TargetWinRate") {
		config.TargetWinRate = viper.GetFloat64("AI.TargetWinRate")
	}
	if viper.IsSet("AI.AdaptationRate") {
		config.AdaptationRate = viper.GetFloat64("AI.AdaptationRate")
	}
	if viper.IsSet("AI.PowerMultiplierFloor") {
		config.PowerMultiplierFloor = viper.GetFloat64("AI.PowerMultiplierFloor")
	}
	if viper.IsSet("AI.PowerMultiplierCap") {
		config.PowerMultiplierCap = viper.GetFloat64("AI.PowerMultiplierCap")
	}

	return config
}
