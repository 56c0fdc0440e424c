package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hostrelay",
	Short: "Control this machine from a Telegram chat",
	Long: `hostrelay runs a Telegram bot that accepts commands from a single
trusted user and performs them on this machine: power off, reboot,
screen lock, screenshots, webcam capture, text-to-speech and status.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. missing configuration, failed transport)
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "hostrelay version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newCapabilitiesCmd())
	rootCmd.AddCommand(newConsoleCmd())
}
