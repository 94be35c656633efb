package empire

import "github.com/spf13/viper"

// configuration :
// Tunables for the empire engine's resource generation and citizen
// bonuses, read once at startup from the process configuration and
// never touched again. Mirrors spec.md §4.4 and §8's literal defaults.
//
// The `BaseGoldRate` and `BaseCultureRate` are the per-second generation
// rates before any effect or citizen bonus is applied.
// Defaults: 1.0 gold/s, 0.5 culture/s.
//
// The `CitizenEffect` is the fractional bonus each citizen of the
// matching role (merchant for gold, artist for culture, scientist for
// research speed) contributes to its resource's rate.
// The default value is 0.1 (10% per citizen).
//
// The `StructureRefundFraction` is the fraction of a structure's
// original cost refunded to the empire when it is removed.
// The default value is 0.5.
//
// The `CitizenUpgradeBaseCost` is the gold cost of the first additional
// citizen bought via `UpgradeCitizen`; each subsequent citizen costs
// `CitizenUpgradeGrowth` times more.
//
// The `StructureUpgradeCostFraction` is the fraction of a structure's
// original catalogue cost charged for each `UpgradeStructure` call; the
// `StructureUpgradeFactor` is the multiplier applied to its Damage/Range
// stats per upgrade.
//
// The `LifeUpgradeBaseCost` and `LifeUpgradeAmount` price `IncreaseLife`:
// each call costs `LifeUpgradeBaseCost * MaxLife / LifeUpgradeAmount`
// gold (never less than `LifeUpgradeBaseCost`), and adds
// `LifeUpgradeAmount` to both `MaxLife` and the current `life` resource.
type configuration struct {
	BaseGoldRate            float64
	BaseCultureRate         float64
	CitizenEffect           float64
	StructureRefundFraction float64
	CitizenUpgradeBaseCost  float64
	CitizenUpgradeGrowth    float64

	StructureUpgradeCostFraction float64
	StructureUpgradeFactor       float64

	LifeUpgradeBaseCost float64
	LifeUpgradeAmount   float64
}

// parseConfiguration :
// Reads the empire engine's tunables from viper, falling back to the
// defaults used throughout spec.md's worked examples whenever a key is
// not set.
func parseConfiguration() configuration {
	config := configuration{
		BaseGoldRate:            1.0,
		BaseCultureRate:         0.5,
		CitizenEffect:           0.1,
		StructureRefundFraction: 0.5,
		CitizenUpgradeBaseCost:  50.0,
		CitizenUpgradeGrowth:    1.2,

		StructureUpgradeCostFraction: 0.75,
		StructureUpgradeFactor:       1.25,

		LifeUpgradeBaseCost: 100.0,
		LifeUpgradeAmount:   10.0,
	}

	if viper.IsSet("Empire.BaseGoldRate") {
		config.BaseGoldRate = viper.GetFloat64("Empire.BaseGoldRate")
	}
	if viper.IsSet("Empire.BaseCultureRate") {
		config.BaseCultureRate = viper.GetFloat64("Empire.BaseCultureRate")
	}
	if viper.IsSet("Empire.CitizenEffect") {
		config.CitizenEffect = viper.GetFloat64("Empire.CitizenEffect")
	}
	if viper.IsSet("Empire.StructureRefundFraction") {
		config.StructureRefundFraction = viper.GetFloat64("Empire.StructureRefundFraction")
	}
	if viper.IsSet("Empire.CitizenUpgradeBaseCost") {
		config.CitizenUpgradeBaseCost = viper.GetFloat64("Empire.CitizenUpgradeBaseCost")
	}
	if viper.IsSet("Empire.CitizenUpgradeGrowth") {
		config.CitizenUpgradeGrowth = viper.GetFloat64("Empire.CitizenUpgradeGrowth")
	}
	if viper.IsSet("Empire.StructureUpgradeCostFraction") {
		config.StructureUpgradeCostFraction = viper.GetFloat64("Empire.StructureUpgradeCostFraction")
	}
	if viper.IsSet("Empire.StructureUpgradeFactor") {
		config.StructureUpgradeFactor = viper.GetFloat64("Empire.StructureUpgradeFactor")
	}
	if viper.IsSet("Empire.LifeUpgradeBaseCost") {
		config.LifeUpgradeBaseCost = viper.GetFloat64("Empire.LifeUpgradeBaseCost")
	}
	if viper.IsSet("Empire.LifeUpgradeAmount") {
		config.LifeUpgradeAmount = viper.GetFloat64("Empire.LifeUpgradeAmount")
	}

	return config
}
