package fragment

import (
	"os"

	"github.com/BurntSushi/toml"
	jlconfig "github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

const defaultConfigPath = "world.toml"

// WorldConfig holds the configuration for a World instance. Values can be
// set via a TOML file and overridden with environment variables.
type WorldConfig struct {
	// Name of this world, used in logs and metric tags.
	WorldName string `config:"FRAGMENT_WORLD_NAME" toml:"world_name"`

	// Minimum level the world logger emits at.
	LogLevel string `config:"FRAGMENT_LOG_LEVEL" toml:"log_level"`

	// Human-readable console output instead of JSON.
	LogPretty bool `config:"FRAGMENT_LOG_PRETTY" toml:"log_pretty"`

	// Address of a statsd agent. Empty disables metric emission.
	StatsdAddress string `config:"FRAGMENT_STATSD_ADDRESS" toml:"statsd_address"`

	// Address of a trace agent. Empty disables tracing.
	TraceAddress string `config:"FRAGMENT_TRACE_ADDRESS" toml:"trace_address"`
}

func defaultWorldConfig() WorldConfig {
	return WorldConfig{
		WorldName: "world",
		LogLevel:  "info",
	}
}

// loadWorldConfig layers the defaults, the optional TOML file, and the
// environment, in that order. The file path comes from FRAGMENT_CONFIG and
// falls back to ./world.toml; a missing file is not an error.
func loadWorldConfig() (WorldConfig, error) {
	cfg := defaultWorldConfig()

	path := os.Getenv("FRAGMENT_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, eris.Wrapf(err, "failed to parse config file %q", path)
		}
	}

	if err := jlconfig.FromEnv().To(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse world config from environment")
	}

	return cfg, nil
}

// Validate performs validation on the configuration.
func (cfg *WorldConfig) Validate() error {
	if cfg.WorldName == "" {
		return eris.New("world name cannot be empty")
	}
	if cfg.LogLevel == "" {
		return eris.New("log level cannot be empty")
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return eris.Wrapf(err, "invalid log level %q", cfg.LogLevel)
	}
	return nil
}

func (cfg *WorldConfig) logLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
