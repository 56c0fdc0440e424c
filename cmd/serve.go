package cmd

import (
	"context"
	"fmt"

	"hostrelay/internal/app"

	"github.com/spf13/cobra"
)

// debug enables verbose logging across the application.
var serveDebug bool

// serveConfigPath is an extra YAML file layered over the user config.
var serveConfigPath string

// serveEnvFile is a dotenv file holding BOT_TOKEN, ALLOWED_USER_ID and DEVICE_NAME.
var serveEnvFile string

// serveNoLogFile keeps logs on the console only.
var serveNoLogFile bool

// serveCmd starts the relay and blocks until it is told to stop.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bot and relay commands to this machine.",
	Long: `Starts the Telegram bot and relays commands from the allowed user
to this machine until interrupted or told to stop with /shutdown_bot.

On startup the available host tools are probed once; commands whose tools
are missing reply with what was looked for instead of failing silently.

Configuration:
  Settings are layered: built-in defaults, ~/.config/hostrelay/config.yaml,
  the file given with --config, a dotenv file (--env-file, or
  ~/.config/hostrelay/.env when present) and finally the environment
  variables BOT_TOKEN, ALLOWED_USER_ID and DEVICE_NAME.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, serveConfigPath, serveEnvFile)
	cfg.NoLogFile = serveNoLogFile

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to an additional YAML configuration file")
	serveCmd.Flags().StringVar(&serveEnvFile, "env-file", "", "Path to a .env file with bot credentials")
	serveCmd.Flags().BoolVar(&serveNoLogFile, "no-log-file", false, "Log to the console only")
}
