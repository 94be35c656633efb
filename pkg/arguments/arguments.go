package arguments

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// AppMetadata :
// Identifies one running instance of the simulation server: the
// machine it runs on, a per-process instance id (so two servers on the
// same host don't share log context), which named environment started
// it, and the public-facing port reported to players/ops tooling.
//
// `PublicIPv4` defaults to "localhost" but can be overridden by the
// config file (reverse-proxied or containerized deployments rarely
// expose the real interface address to the process). `InstanceID` is
// regenerated on every restart, deliberately: it is meant to tell two
// runs of the same binary apart in logs, not to survive a restart.
// `Environment` is the name of the config file that was loaded
// ("development", "production", ...), used to gate log verbosity
// elsewhere. `Port` is read from `App.Port`; the websocket/metrics
// listener takes its own port from `Session.Port`, not from this field.
type AppMetadata struct {
	PublicIPv4  string `json:"public_ipv4"`
	InstanceID  string `json:"instance_id"`
	Environment string `json:"environment"`
	Port        int
}

// Parse :
// Loads `configFile` (without extension) through viper, searching the
// working directory and `data/config`, and layers its `App.*` section
// onto the development defaults below. Panics if the named config file
// cannot be found: a server with no resolvable environment has no
// business starting, since every package on the empire/attack/battle
// side derives its tuning from the same config tree.
func Parse(configFile string) AppMetadata {
	// Assign the extra path to use to reach the configuration file.
	viper.SetEnvPrefix("ENV")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	// Put the configuration file in the config structure
	// name of config file (without extension).
	viper.SetConfigName(configFile)

	// Optionally look for config in the working directory and in the common
	// `data/config` directory.
	viper.AddConfigPath(".")
	viper.AddConfigPath("data/config")

	// Find and read the config file.
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("could not parse input configuration \"%s\" (err: %v)", configFile, err))
	}

	// Create the default application properties.
	metadata := AppMetadata{
		"localhost",
		uuid.New().String(),
		"unknown",
		3000,
	}

	// Fetch values from the configuration produced by the runtime.
	if len(configFile) > 0 {
		metadata.Environment = configFile
	}
	if viper.IsSet("App.Port") {
		metadata.Port = viper.GetInt("App.Port")
	}
	if viper.IsSet("App.PublicIPv4") {
		metadata.PublicIPv4 = viper.GetString("App.PublicIPv4")
	}

	// Return the built-in configuration object.
	return metadata
}
