package config

import (
	"os"
	"path/filepath"
	"time"
)

// For mocking in tests
var osHostname = os.Hostname

const fallbackDeviceName = "unknown-device"

// GetDefaultConfig returns the built-in defaults.
func GetDefaultConfig() RelayConfig {
	return RelayConfig{
		DeviceName:       defaultDeviceName(),
		PollTimeout:      30,
		CommandTimeout:   2 * time.Minute,
		QueueSize:        8,
		MaxScheduleDelay: 7 * 24 * time.Hour,
		LogLevel:         "info",
		LogFile:          defaultLogFile(),
		PIDFile:          defaultPIDFile(),
	}
}

func defaultDeviceName() string {
	name, err := osHostname()
	if err != nil || name == "" {
		return fallbackDeviceName
	}
	return name
}

func defaultLogFile() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName, appName+".log")
	}
	home, err := osUserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName+".log")
	}
	return filepath.Join(home, ".local", "state", appName, appName+".log")
}

func defaultPIDFile() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName+".pid")
	}
	return filepath.Join(os.TempDir(), appName+".pid")
}
