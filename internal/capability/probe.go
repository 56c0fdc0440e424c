package capability

import (
	"context"

	"hostrelay/pkg/logging"
)

// PathLooker resolves executables without running them.
type PathLooker interface {
	LookPath(file string) (string, error)
}

// DeviceLister lists the capture devices PerDevice methods run against.
type DeviceLister interface {
	VideoDevices(ctx context.Context) []string
}

// Prober resolves a Catalog against the host.
type Prober struct {
	looker  PathLooker
	catalog Catalog
	devices DeviceLister
}

// NewProber creates a Prober for the given catalog.
func NewProber(looker PathLooker, catalog Catalog) *Prober {
	return &Prober{looker: looker, catalog: catalog}
}

// WithDevices makes PerDevice methods count only when at least one capture
// device is present.
func (p *Prober) WithDevices(devices DeviceLister) *Prober {
	p.devices = devices
	return p
}

// Probe resolves every candidate Method. It never fails: a Method whose
// executables cannot be found is recorded as missing.
func (p *Prober) Probe(ctx context.Context) *Set {
	var entries []Entry
	devices := &deviceCheck{lister: p.devices}
	for _, name := range p.names() {
		entries = append(entries, p.probeOne(ctx, name, devices))
	}
	set := NewSet(p.catalog.GOOS, entries...)

	for _, e := range set.Report() {
		if e.Available() {
			logging.Info("Probe", "%s", e.String())
		} else {
			logging.Warn("Probe", "%s (tried: %v)", e.String(), e.Missing)
		}
	}
	return set
}

func (p *Prober) names() []Name {
	var names []Name
	seen := make(map[Name]bool)
	for _, n := range All {
		if _, ok := p.catalog.Methods[n]; ok {
			names = append(names, n)
			seen[n] = true
		}
	}
	for n := range p.catalog.Methods {
		if !seen[n] {
			names = append(names, n)
		}
	}
	return names
}

// deviceCheck lists devices at most once per probe.
type deviceCheck struct {
	lister  DeviceLister
	done    bool
	present bool
}

func (d *deviceCheck) available(ctx context.Context) bool {
	if d.lister == nil {
		return true
	}
	if !d.done {
		d.done = true
		d.present = len(d.lister.VideoDevices(ctx)) > 0
	}
	return d.present
}

func (p *Prober) probeOne(ctx context.Context, name Name, devices *deviceCheck) Entry {
	entry := Entry{Name: name, Paths: make(map[string]string)}

	for _, m := range p.catalog.Methods[name] {
		if ctx.Err() != nil {
			entry.Missing = append(entry.Missing, m.Name)
			continue
		}
		resolved := true
		for _, exe := range m.Executables() {
			if _, done := entry.Paths[exe]; done {
				continue
			}
			path, err := p.lookPath(exe)
			if err != nil {
				logging.Debug("Probe", "%s: %s not found for method %q", name, exe, m.Name)
				resolved = false
				break
			}
			entry.Paths[exe] = path
		}
		switch {
		case !resolved:
			entry.Missing = append(entry.Missing, m.Name)
		case m.PerDevice && !devices.available(ctx):
			logging.Debug("Probe", "%s: no capture device for method %q", name, m.Name)
			entry.Missing = append(entry.Missing, m.Name+" (no capture device)")
		default:
			entry.Methods = append(entry.Methods, m)
		}
	}
	return entry
}

// lookPath shields the probe from panicking lookers.
func (p *Prober) lookPath(exe string) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Warn("Probe", "lookup of %s panicked: %v", exe, r)
			path, err = "", errPanicked
		}
	}()
	return p.looker.LookPath(exe)
}
