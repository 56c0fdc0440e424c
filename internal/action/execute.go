package action

import (
	"context"
	"errors"
	"maps"
	"os"
	"slices"

	"hostrelay/internal/capability"
	"hostrelay/internal/utils"
	"hostrelay/pkg/logging"
)

var (
	errNoDevices    = errors.New("no capture devices found")
	errEmptyCapture = errors.New("tool reported success but produced no image")
)

// verifyFunc inspects the outcome of a method that exited successfully.
type verifyFunc func(vars map[string]string) error

// unavailable returns an UnavailableError when name has no usable method.
func (h *Host) unavailable(name capability.Name) error {
	entry, _ := h.Caps.Get(name)
	if entry.Available() {
		return nil
	}
	return &UnavailableError{Capability: name, Device: h.Device, Tools: entry.Missing}
}

// execute tries every usable method of name in preference order and returns
// the first one that succeeds. Per-device methods are tried once per device.
func (h *Host) execute(ctx context.Context, name capability.Name, vars map[string]string, verify verifyFunc) (capability.Method, error) {
	if err := h.unavailable(name); err != nil {
		return capability.Method{}, err
	}

	var attempts []Attempt
	for _, m := range h.Caps.Methods(name) {
		targets := []map[string]string{vars}
		if m.PerDevice {
			targets = h.deviceTargets(ctx, vars)
			if len(targets) == 0 {
				attempts = append(attempts, Attempt{Method: m.Name, Err: errNoDevices})
				continue
			}
		}

		for _, v := range targets {
			if err := ctx.Err(); err != nil {
				attempts = append(attempts, Attempt{Method: m.Name, Err: err})
				return capability.Method{}, &ExecError{Capability: name, Attempts: attempts}
			}
			label := m.Name
			if dev := v["device"]; m.PerDevice && dev != "" {
				label += " (" + dev + ")"
			}

			logging.Debug("Action", "%s: trying %s", name, label)
			err := h.runMethod(ctx, name, m, v)
			if err == nil && verify != nil {
				err = verify(v)
			}
			if err == nil {
				logging.Info("Action", "%s succeeded via %s", name, label)
				return m, nil
			}
			logging.Warn("Action", "%s via %s failed: %v", name, label, err)
			attempts = append(attempts, Attempt{Method: label, Err: err})
		}
	}
	return capability.Method{}, &ExecError{Capability: name, Attempts: attempts}
}

func (h *Host) deviceTargets(ctx context.Context, vars map[string]string) []map[string]string {
	if h.Devices == nil {
		return nil
	}
	var out []map[string]string
	for _, dev := range h.Devices.VideoDevices(ctx) {
		v := maps.Clone(vars)
		if v == nil {
			v = make(map[string]string)
		}
		v["device"] = dev
		out = append(out, v)
	}
	return out
}

// runMethod runs every step of m. Output files from earlier attempts are
// removed first so a stale capture is never reported as fresh.
func (h *Host) runMethod(ctx context.Context, name capability.Name, m capability.Method, vars map[string]string) error {
	if f := vars["file"]; f != "" {
		_ = os.Remove(f)
	}

	var env []string
	if m.Session && h.Environ != nil {
		env = h.Environ()
	}

	for i, s := range m.Steps {
		opts := utils.RunOptions{
			Env:     stepEnv(env, s.Env, vars),
			Stdin:   utils.Expand(s.Stdin, vars),
			Timeout: h.timeout(m),
			Detach:  m.Detach && i == len(m.Steps)-1,
		}
		args := utils.ExpandPlaceholders(s.Args, vars)
		if _, err := h.Runner.Run(ctx, h.Caps.Path(name, s.Command), args, opts); err != nil {
			return err
		}
	}
	return nil
}

// stepEnv appends the step's variables to base. A nil result inherits the
// process environment.
func stepEnv(base []string, extra map[string]string, vars map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	if base == nil {
		base = os.Environ()
	}
	env := slices.Clone(base)
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		env = append(env, k+"="+utils.Expand(extra[k], vars))
	}
	return env
}

// nonEmptyFile verifies that the capture file exists and has content.
func nonEmptyFile(vars map[string]string) error {
	info, err := os.Stat(vars["file"])
	if err != nil || info.Size() == 0 {
		return errEmptyCapture
	}
	return nil
}
