package app

import (
	"hostrelay/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug bool

	// ConfigPath is an optional YAML file layered over the user config.
	ConfigPath string
	// EnvFile is an optional dotenv file.
	EnvFile string

	// NoLogFile keeps logging on the console only.
	NoLogFile bool

	// Console reads commands from the terminal instead of the bot.
	Console bool

	// Relay configuration, filled in by NewApplication
	Relay *config.RelayConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath, envFile string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
		EnvFile:    envFile,
	}
}
