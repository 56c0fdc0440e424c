package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"hostrelay/internal/auth"
	"hostrelay/pkg/logging"
)

// For mocking in tests
var (
	osUserHomeDir = os.UserHomeDir
	osLookupEnv   = os.LookupEnv
)

const (
	appName        = "hostrelay"
	userConfigDir  = ".config/" + appName
	configFileName = "config.yaml"
	envFileName    = ".env"
)

// Environment variables read by the last layer.
const (
	EnvBotToken      = "BOT_TOKEN"
	EnvAllowedUserID = "ALLOWED_USER_ID"
	EnvDeviceName    = "DEVICE_NAME"
)

// LoadOptions selects optional configuration sources.
type LoadOptions struct {
	// ConfigPath is an extra YAML file. It must exist when set.
	ConfigPath string
	// EnvFile is a dotenv file. It must exist when set. When empty the
	// default ~/.config/hostrelay/.env is read if present.
	EnvFile string
}

// LoadConfig loads the relay configuration by layering defaults, files and
// the environment. It does not validate the result.
func LoadConfig(opts LoadOptions) (RelayConfig, error) {
	// 1. Start with the default configuration
	config := GetDefaultConfig()

	// 2. User configuration
	userConfigPath, err := getUserConfigPath()
	if err != nil {
		logging.Warn("Config", "could not determine user config path: %v", err)
	} else if _, err := os.Stat(userConfigPath); err == nil {
		userConfig, err := loadConfigFromFile(userConfigPath)
		if err != nil {
			return RelayConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
		}
		config = mergeConfigs(config, userConfig)
		logging.Debug("Config", "loaded %s", userConfigPath)
	}

	// 3. Explicit configuration file
	if opts.ConfigPath != "" {
		fileConfig, err := loadConfigFromFile(opts.ConfigPath)
		if err != nil {
			return RelayConfig{}, fmt.Errorf("error loading config from %s: %w", opts.ConfigPath, err)
		}
		config = mergeConfigs(config, fileConfig)
		logging.Debug("Config", "loaded %s", opts.ConfigPath)
	}

	// 4. Dotenv file
	envFile, required := opts.EnvFile, true
	if envFile == "" {
		required = false
		if dir, err := GetUserConfigDir(); err == nil {
			envFile = filepath.Join(dir, envFileName)
		}
	}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			if config, err = applyEnv(config, mapLookup(values)); err != nil {
				return RelayConfig{}, fmt.Errorf("error in %s: %w", envFile, err)
			}
			logging.Debug("Config", "loaded %s", envFile)
		case required || !errors.Is(err, os.ErrNotExist):
			return RelayConfig{}, fmt.Errorf("error loading env file %s: %w", envFile, err)
		}
	}

	// 5. Process environment
	config, err = applyEnv(config, osLookupEnv)
	if err != nil {
		return RelayConfig{}, fmt.Errorf("error in environment: %w", err)
	}
	config.LogFile = expandHome(config.LogFile)
	config.PIDFile = expandHome(config.PIDFile)
	return config, nil
}

var getUserConfigPath = func() (string, error) {
	dir, err := GetUserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// loadConfigFromFile loads a RelayConfig from a YAML file.
func loadConfigFromFile(filePath string) (RelayConfig, error) {
	var config RelayConfig
	data, err := os.ReadFile(filePath)
	if err != nil {
		return RelayConfig{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return RelayConfig{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Zero values in
// overlay leave base untouched.
func mergeConfigs(base, overlay RelayConfig) RelayConfig {
	merged := base
	if overlay.BotToken != "" {
		merged.BotToken = overlay.BotToken
	}
	if overlay.AllowedUserID != 0 {
		merged.AllowedUserID = overlay.AllowedUserID
	}
	if overlay.DeviceName != "" {
		merged.DeviceName = overlay.DeviceName
	}
	if overlay.PollTimeout != 0 {
		merged.PollTimeout = overlay.PollTimeout
	}
	if overlay.CommandTimeout != 0 {
		merged.CommandTimeout = overlay.CommandTimeout
	}
	if overlay.QueueSize != 0 {
		merged.QueueSize = overlay.QueueSize
	}
	if overlay.MaxScheduleDelay != 0 {
		merged.MaxScheduleDelay = overlay.MaxScheduleDelay
	}
	if overlay.KeepPendingUpdates {
		merged.KeepPendingUpdates = true
	}
	if overlay.LogLevel != "" {
		merged.LogLevel = overlay.LogLevel
	}
	if overlay.LogFile != "" {
		merged.LogFile = overlay.LogFile
	}
	if overlay.PIDFile != "" {
		merged.PIDFile = overlay.PIDFile
	}
	return merged
}

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// applyEnv overrides config with BOT_TOKEN, ALLOWED_USER_ID and DEVICE_NAME.
// Empty values are ignored.
func applyEnv(config RelayConfig, lookup func(string) (string, bool)) (RelayConfig, error) {
	if v, ok := lookup(EnvBotToken); ok && strings.TrimSpace(v) != "" {
		config.BotToken = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvAllowedUserID); ok && strings.TrimSpace(v) != "" {
		id, err := auth.ParseIdentity(v)
		if err != nil {
			return config, fmt.Errorf("%s: %w", EnvAllowedUserID, ErrInvalidUserID)
		}
		config.AllowedUserID = int64(id)
	}
	if v, ok := lookup(EnvDeviceName); ok && strings.TrimSpace(v) != "" {
		config.DeviceName = strings.TrimSpace(v)
	}
	return config, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := osUserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
