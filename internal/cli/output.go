// Package cli renders command output for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"hostrelay/internal/capability"
)

// OutputFormat represents the output format for CLI commands
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// maxCellWidth keeps long tool lists from wrapping the table.
const maxCellWidth = 48

// CapabilityRow is the serialized form of one probe entry.
type CapabilityRow struct {
	Name      string            `json:"name" yaml:"name"`
	Available bool              `json:"available" yaml:"available"`
	Methods   []string          `json:"methods,omitempty" yaml:"methods,omitempty"`
	Missing   []string          `json:"missing,omitempty" yaml:"missing,omitempty"`
	Paths     map[string]string `json:"paths,omitempty" yaml:"paths,omitempty"`
}

// Rows converts a probe report for serialization.
func Rows(report []capability.Entry) []CapabilityRow {
	rows := make([]CapabilityRow, 0, len(report))
	for _, e := range report {
		row := CapabilityRow{
			Name:      string(e.Name),
			Available: e.Available(),
			Missing:   e.Missing,
			Paths:     e.Paths,
		}
		for _, m := range e.Methods {
			row.Methods = append(row.Methods, m.Name)
		}
		rows = append(rows, row)
	}
	return rows
}

// PrintCapabilities writes the report in the requested format.
func PrintCapabilities(w io.Writer, report []capability.Entry, format OutputFormat) error {
	rows := Rows(report)
	switch format {
	case OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("failed to convert to YAML: %w", err)
		}
		return enc.Close()
	case OutputFormatTable, "":
		return printTable(w, rows)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func printTable(w io.Writer, rows []CapabilityRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, text.FgYellow.Sprint("No capabilities known for this platform"))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("CAPABILITY"),
		text.FgHiCyan.Sprint("STATUS"),
		text.FgHiCyan.Sprint("METHODS"),
		text.FgHiCyan.Sprint("MISSING"),
	})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.Name,
			formatAvailableStatus(r.Available),
			cell(r.Methods),
			text.FgHiBlack.Sprint(cell(r.Missing)),
		})
	}
	t.Render()
	return nil
}

// formatAvailableStatus formats boolean availability
func formatAvailableStatus(available bool) string {
	if available {
		return text.FgGreen.Sprint("✅ Available")
	}
	return text.FgRed.Sprint("❌ Unavailable")
}

func cell(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return runewidth.Truncate(strings.Join(items, ", "), maxCellWidth, "…")
}
