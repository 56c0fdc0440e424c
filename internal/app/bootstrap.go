package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"hostrelay/internal/config"
	"hostrelay/pkg/logging"
)

// Application is the main application structure that bootstraps and runs the relay
type Application struct {
	config   *Config
	services *Services
}

// NewApplication loads and validates the configuration, then connects the
// transport. Configuration errors are returned before any polling starts.
func NewApplication(cfg *Config) (*Application, error) {
	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}
	logOut := io.Writer(os.Stdout)
	if cfg.Console {
		// Keep stdout for the prompt and replies.
		logOut = os.Stderr
	}
	logging.InitForCLI(appLogLevel, logOut)

	relayCfg, err := config.LoadConfig(config.LoadOptions{ConfigPath: cfg.ConfigPath, EnvFile: cfg.EnvFile})
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration")
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	validate := relayCfg.Validate
	if cfg.Console {
		validate = relayCfg.ValidateLocal
	}
	if err := validate(); err != nil {
		logging.Error("Bootstrap", err, "Invalid configuration")
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if !cfg.Debug {
		if lvl, err := logging.ParseLevel(relayCfg.LogLevel); err != nil {
			logging.Warn("Bootstrap", "%v, using info", err)
		} else {
			appLogLevel = lvl
		}
	}
	if relayCfg.LogFile != "" && !cfg.NoLogFile {
		if err := logging.InitWithFile(appLogLevel, relayCfg.LogFile, logOut); err != nil {
			logging.InitForCLI(appLogLevel, logOut)
			logging.Warn("Bootstrap", "logging to console only: %v", err)
		}
	} else {
		logging.InitForCLI(appLogLevel, logOut)
	}
	logging.Debug("Bootstrap", "configuration: %+v", relayCfg.Redacted())

	cfg.Relay = &relayCfg

	services, err := InitializeServices(context.Background(), cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		logging.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Run polls for commands until interrupted or stopped by /shutdown_bot.
func (a *Application) Run(ctx context.Context) error {
	defer logging.Close()
	return runRelay(ctx, a.config, a.services)
}
