// Package config loads the debug service configuration.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the service configuration.
type Config struct {
	Service  ServiceConfig  `toml:"service"`
	Debugger DebuggerConfig `toml:"debugger"`
}

// ServiceConfig configures the discovery service.
type ServiceConfig struct {
	// Name is the target title shown by DevTools frontends.
	Name string `toml:"name"`

	// Description is the target description.
	Description string `toml:"description"`

	// Port is the listen port; zero picks an ephemeral port.
	Port uint16 `toml:"port"`

	// FavIcon is an optional favicon URL advertised for targets.
	FavIcon string `toml:"favicon"`
}

// DebuggerConfig configures debugger startup behavior.
type DebuggerConfig struct {
	// BreakOnStart pauses script execution at the first statement after a
	// frontend connects.
	BreakOnStart bool `toml:"break_on_start"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Service: ServiceConfig{
			Name:        "JavaScript Instance",
			Description: "JavaScript Instance",
			Port:        9229,
		},
		Debugger: DebuggerConfig{
			BreakOnStart: true,
		},
	}
}

// Load reads a TOML configuration file, layering it over the defaults. A
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
