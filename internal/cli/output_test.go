package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"hostrelay/internal/capability"
)

func sampleReport() []capability.Entry {
	return []capability.Entry{
		{
			Name:    capability.Lock,
			Methods: []capability.Method{{Name: "loginctl lock-session"}},
			Missing: []string{"hyprlock"},
			Paths:   map[string]string{"loginctl": "/usr/bin/loginctl"},
		},
		{Name: capability.Camera, Missing: []string{"ffmpeg v4l2", "fswebcam"}},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleReport())
	require.Len(t, rows, 2)
	assert.Equal(t, CapabilityRow{
		Name:      "lock",
		Available: true,
		Methods:   []string{"loginctl lock-session"},
		Missing:   []string{"hyprlock"},
		Paths:     map[string]string{"loginctl": "/usr/bin/loginctl"},
	}, rows[0])
	assert.False(t, rows[1].Available)
}

func TestPrintCapabilities_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintCapabilities(&buf, sampleReport(), OutputFormatJSON))

	var rows []CapabilityRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	assert.Equal(t, "camera", rows[1].Name)
}

func TestPrintCapabilities_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintCapabilities(&buf, sampleReport(), OutputFormatYAML))

	var rows []CapabilityRow
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &rows))
	assert.Equal(t, []string{"ffmpeg v4l2", "fswebcam"}, rows[1].Missing)
}

func TestPrintCapabilities_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintCapabilities(&buf, sampleReport(), OutputFormatTable))

	out := buf.String()
	assert.Contains(t, out, "CAPABILITY")
	assert.Contains(t, out, "loginctl lock-session")
	assert.Contains(t, out, "Unavailable")
}

func TestPrintCapabilities_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, PrintCapabilities(&buf, sampleReport(), "xml"))

	buf.Reset()
	require.NoError(t, PrintCapabilities(&buf, nil, OutputFormatTable))
	assert.Contains(t, buf.String(), "No capabilities")
}

func TestCellTruncates(t *testing.T) {
	long := []string{strings.Repeat("x", 40), strings.Repeat("y", 40)}
	got := cell(long)
	assert.LessOrEqual(t, len([]rune(got)), maxCellWidth)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Equal(t, "-", cell(nil))
}
