package cmd

import (
	"context"
	"fmt"
	"runtime"

	"hostrelay/internal/app"
	"hostrelay/internal/capability"
	"hostrelay/internal/cli"
	"hostrelay/internal/color"
	"hostrelay/internal/utils"

	"github.com/spf13/cobra"
)

// For mocking in tests
var probeHost = func(ctx context.Context) *capability.Set {
	return app.ProbeCapabilities(ctx, utils.NewExecRunner(), runtime.GOOS)
}

var capabilitiesOutput string

func newCapabilitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "capabilities",
		Aliases: []string{"caps"},
		Short:   "Show which actions this machine supports",
		Long: `Probes this machine for the tools each action needs and prints
which ones were found. This is the same probe serve runs at startup,
so it shows what the bot will be able to do without connecting to Telegram.`,
		Args: cobra.NoArgs,
		RunE: runCapabilities,
	}
	cmd.Flags().StringVarP(&capabilitiesOutput, "output", "o", "table", "Output format (table, json, yaml)")
	return cmd
}

func runCapabilities(cmd *cobra.Command, args []string) error {
	format := cli.OutputFormat(capabilitiesOutput)
	switch format {
	case cli.OutputFormatTable, cli.OutputFormatJSON, cli.OutputFormatYAML:
	default:
		return fmt.Errorf("unsupported output format %q (use table, json or yaml)", capabilitiesOutput)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	set := probeHost(ctx)

	out := cmd.OutOrStdout()
	if format == cli.OutputFormatTable {
		color.Setup()
		fmt.Fprintln(out, color.TitleStyle.Render(fmt.Sprintf("Capabilities (%s)", set.GOOS())))
		if n := unavailable(set); n > 0 {
			fmt.Fprintln(out, color.MutedStyle.Render(fmt.Sprintf("%d unavailable: install one of the missing tools to enable them", n)))
		}
	}
	return cli.PrintCapabilities(out, set.Report(), format)
}

func unavailable(set *capability.Set) int {
	n := 0
	for _, e := range set.Report() {
		if !e.Available() {
			n++
		}
	}
	return n
}
