// Package session reconstructs the graphical session environment that
// Wayland/X11 tools need when the relay runs as a background service.
package session

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hostrelay/pkg/logging"
)

// For mocking in tests
var (
	osStat    = os.Stat
	osLstat   = os.Lstat
	osReadDir = os.ReadDir
	osGetuid  = os.Getuid
)

// Environ returns a copy of base with XDG_RUNTIME_DIR, WAYLAND_DISPLAY,
// DISPLAY and DBUS_SESSION_BUS_ADDRESS filled in when they are missing.
// Existing values always win. On platforms other than Linux and the BSDs
// base is returned unchanged.
func Environ(goos string, base []string) []string {
	env := make([]string, len(base))
	copy(env, base)
	if goos != "linux" && !strings.HasSuffix(goos, "bsd") {
		return env
	}

	vars := toMap(env)
	var notes []string
	set := func(key, value, note string) {
		env = append(env, key+"="+value)
		vars[key] = value
		notes = append(notes, fmt.Sprintf("%s=%s (%s)", key, value, note))
	}

	if vars["XDG_RUNTIME_DIR"] == "" {
		set("XDG_RUNTIME_DIR", fmt.Sprintf("/run/user/%d", osGetuid()), "default")
	}
	runtimeDir := vars["XDG_RUNTIME_DIR"]

	if vars["WAYLAND_DISPLAY"] == "" {
		if socket := findWaylandSocket(runtimeDir); socket != "" {
			set("WAYLAND_DISPLAY", socket, "detected")
		} else {
			set("WAYLAND_DISPLAY", "wayland-0", "guessed")
		}
	}

	if vars["DISPLAY"] == "" {
		set("DISPLAY", ":0", "default")
	}

	if vars["DBUS_SESSION_BUS_ADDRESS"] == "" {
		bus := filepath.Join(runtimeDir, "bus")
		if isSocket(bus) {
			set("DBUS_SESSION_BUS_ADDRESS", "unix:path="+bus, "detected")
		} else {
			logging.Debug("Session", "no session bus at %s; desktop tools may fail", bus)
		}
	}

	if vars["HYPRLAND_INSTANCE_SIGNATURE"] == "" {
		logging.Debug("Session", "HYPRLAND_INSTANCE_SIGNATURE not set; hyprctl based tools may fail")
	}

	if len(notes) > 0 {
		logging.Debug("Session", "graphical environment: %s", strings.Join(notes, ", "))
	}
	return env
}

func toMap(env []string) map[string]string {
	m := make(map[string]string, len(env))
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			m[k] = v
		}
	}
	return m
}

func findWaylandSocket(runtimeDir string) string {
	entries, err := osReadDir(runtimeDir)
	if err != nil {
		return ""
	}
	var candidates []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "wayland-") || strings.HasSuffix(name, ".lock") {
			continue
		}
		full := filepath.Join(runtimeDir, name)
		if e.Type()&fs.ModeSymlink != 0 || isSocket(full) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Strings(candidates)
	return candidates[0]
}

func isSocket(path string) bool {
	info, err := osStat(path)
	if err != nil {
		info, err = osLstat(path)
		if err != nil {
			return false
		}
	}
	return info.Mode()&fs.ModeSocket != 0
}
