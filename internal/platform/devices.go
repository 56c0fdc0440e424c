package platform

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"hostrelay/internal/utils"
	"hostrelay/pkg/logging"
)

// For mocking in tests
var globVideoDevices = func() ([]string, error) {
	return filepath.Glob("/dev/video*")
}

// DeviceFinder lists capture devices for PerDevice camera methods.
type DeviceFinder struct {
	runner utils.Runner
	goos   string
}

// NewDeviceFinder creates a DeviceFinder for goos.
func NewDeviceFinder(runner utils.Runner, goos string) *DeviceFinder {
	return &DeviceFinder{runner: runner, goos: goos}
}

// VideoDevices returns camera device paths in a stable order. On Linux it asks
// v4l2-ctl first and falls back to /dev/video* nodes. Other platforms address
// cameras by index and return nil.
func (f *DeviceFinder) VideoDevices(ctx context.Context) []string {
	if f.goos != "linux" {
		return nil
	}

	var devices []string
	if _, err := f.runner.LookPath("v4l2-ctl"); err == nil {
		res, err := f.runner.Run(ctx, "v4l2-ctl", []string{"--list-devices"}, utils.RunOptions{Timeout: 5 * time.Second})
		if err != nil {
			logging.Warn("Camera", "v4l2-ctl --list-devices failed: %v", err)
		} else {
			devices = ParseV4L2Devices(res.Stdout)
		}
	}

	if len(devices) == 0 {
		nodes, err := globVideoDevices()
		if err != nil {
			logging.Warn("Camera", "probing /dev/video* failed: %v", err)
		}
		sort.Strings(nodes)
		devices = nodes
	}
	return devices
}

// ParseV4L2Devices extracts /dev/videoN paths from `v4l2-ctl --list-devices`.
// Device paths are the indented lines under each card header.
func ParseV4L2Devices(output string) []string {
	var devices []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !strings.HasPrefix(line, "\t") && !strings.HasPrefix(line, " ") {
			continue
		}
		if strings.HasPrefix(trimmed, "/dev/video") && !seen[trimmed] {
			seen[trimmed] = true
			devices = append(devices, trimmed)
		}
	}
	return devices
}
