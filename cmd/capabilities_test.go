package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostrelay/internal/capability"
	"hostrelay/internal/cli"
)

func withProbe(t *testing.T, set *capability.Set) {
	t.Helper()
	orig := probeHost
	t.Cleanup(func() { probeHost = orig })
	probeHost = func(context.Context) *capability.Set { return set }
}

func fakeSet() *capability.Set {
	return capability.NewSet("linux",
		capability.Entry{
			Name:    capability.Lock,
			Methods: []capability.Method{{Name: "loginctl lock-session"}},
		},
		capability.Entry{Name: capability.Speech, Missing: []string{"espeak-ng", "espeak", "spd-say"}},
	)
}

func runCaps(t *testing.T, format string) (string, error) {
	t.Helper()
	orig := capabilitiesOutput
	t.Cleanup(func() { capabilitiesOutput = orig })

	cmd := newCapabilitiesCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"-o", format})
	err := cmd.Execute()
	return buf.String(), err
}

func TestCapabilitiesTable(t *testing.T) {
	withProbe(t, fakeSet())

	out, err := runCaps(t, "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Capabilities (linux)")
	assert.Contains(t, out, "loginctl lock-session")
	assert.Contains(t, out, "espeak-ng")
}

func TestCapabilitiesJSON(t *testing.T) {
	withProbe(t, fakeSet())

	out, err := runCaps(t, "json")
	require.NoError(t, err)

	var rows []cli.CapabilityRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.NotEmpty(t, rows)

	byName := map[string]bool{}
	for _, r := range rows {
		byName[r.Name] = r.Available
	}
	assert.True(t, byName["lock"])
	assert.False(t, byName["tts"])
}

func TestCapabilitiesRejectsUnknownFormat(t *testing.T) {
	withProbe(t, fakeSet())

	_, err := runCaps(t, "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}
