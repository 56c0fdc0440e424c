package cmd

import (
	"context"
	"fmt"

	"hostrelay/internal/app"

	"github.com/spf13/cobra"
)

var (
	consoleDebug      bool
	consoleConfigPath string
	consoleEnvFile    string
)

func newConsoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Run commands on this machine from a local prompt",
		Long: `Starts an interactive prompt that accepts the same commands as the
bot (/status, /lock, /screenshot, ...) and runs them on this machine.
Replies are printed and images are saved to a temporary directory.

No bot token is needed, but the allowed user id must be configured: every
command is sent as that user through the same authorization check the bot
uses. Type exit or press Ctrl-D to quit.`,
		Args: cobra.NoArgs,
		RunE: runConsole,
	}
	cmd.Flags().BoolVar(&consoleDebug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&consoleConfigPath, "config", "", "Path to an additional YAML configuration file")
	cmd.Flags().StringVar(&consoleEnvFile, "env-file", "", "Path to a .env file")
	return cmd
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(consoleDebug, consoleConfigPath, consoleEnvFile)
	cfg.Console = true

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
