// Package telemetry exposes the world loop's own tick bookkeeping
// (spec.md §4.7: tick count, last dt, last work time, its rolling
// average) as Prometheus gauges, and periodically logs a
// human-readable summary of the same figures via go-humanize.
package telemetry

import "github.com/spf13/viper"

// configuration :
// Tunables for the telemetry poller, read once from viper keys under
// "Telemetry.*".
//
// The `LogIntervalMs` is how often the summary line is logged; the
// gauges themselves are refreshed on the same cadence (scraping is
// otherwise pull-based, but the gauges need a writer to stay current
// between scrapes).
type configuration struct {
	LogIntervalMs int
}

func parseConfiguration() configuration {
	config := configuration{
		LogIntervalMs: 10000,
	}

	if viper.IsSet("Telemetry.LogIntervalMs") {
		config.LogIntervalMs = viper.GetInt("Telemetry.LogIntervalMs")
	}

	return config
}
