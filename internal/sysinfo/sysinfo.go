// Package sysinfo collects host metrics for the status report. Every metric is
// collected independently, so one failing sensor never hides the others.
package sysinfo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"hostrelay/pkg/logging"
)

var (
	ErrNoBattery = errors.New("no battery found")
	ErrNoSensor  = errors.New("no temperature sensor found")

	errNotCollected = errors.New("not collected")
)

// Metric is a single collected value or the reason it is missing.
type Metric[T any] struct {
	Value T
	Err   error
}

// OK reports whether the value was collected.
func (m Metric[T]) OK() bool {
	return m.Err == nil
}

// Load holds the 1, 5 and 15 minute load averages.
type Load struct {
	Load1, Load5, Load15 float64
}

// Memory is physical memory usage in bytes.
type Memory struct {
	Total       uint64
	Used        uint64
	UsedPercent float64
}

// Temperature is one sensor reading in degrees Celsius.
type Temperature struct {
	Sensor  string
	Celsius float64
}

// Battery is the state of the first battery.
type Battery struct {
	Percent float64
	// State is the charging state as reported by the OS, e.g. "Discharging".
	State string
	// Remaining is the estimated time to empty (discharging) or full (charging).
	// Zero when it cannot be estimated.
	Remaining time.Duration
}

// Snapshot is one status report.
type Snapshot struct {
	Uptime     Metric[time.Duration]
	CPUPercent Metric[float64]
	Load       Metric[Load]
	CPUTemp    Metric[Temperature]
	Memory     Metric[Memory]
	Battery    Metric[Battery]
	Collected  time.Time
}

// Source reads raw metrics from the host.
type Source interface {
	Uptime(ctx context.Context) (time.Duration, error)
	CPUPercent(ctx context.Context) (float64, error)
	Load(ctx context.Context) (Load, error)
	Temperatures(ctx context.Context) ([]Temperature, error)
	Memory(ctx context.Context) (Memory, error)
	Battery(ctx context.Context) (Battery, error)
}

// Collector gathers a Snapshot from a Source.
type Collector struct {
	source Source
	now    func() time.Time
}

// NewCollector returns a Collector reading from source. A nil source uses the
// host.
func NewCollector(source Source) *Collector {
	if source == nil {
		source = NewHostSource()
	}
	return &Collector{source: source, now: time.Now}
}

// Collect reads every metric concurrently and never fails as a whole.
func (c *Collector) Collect(ctx context.Context) Snapshot {
	// A collector that panics leaves its metric marked as not collected.
	snap := Snapshot{
		Uptime:     Metric[time.Duration]{Err: errNotCollected},
		CPUPercent: Metric[float64]{Err: errNotCollected},
		Load:       Metric[Load]{Err: errNotCollected},
		CPUTemp:    Metric[Temperature]{Err: errNotCollected},
		Memory:     Metric[Memory]{Err: errNotCollected},
		Battery:    Metric[Battery]{Err: errNotCollected},
	}
	var wg sync.WaitGroup
	run := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logging.Error("Status", nil, "collecting %s panicked: %v", name, r)
				}
			}()
			fn()
		}()
	}

	run("uptime", func() {
		v, err := c.source.Uptime(ctx)
		snap.Uptime = metric("uptime", v, err)
	})
	run("cpu", func() {
		v, err := c.source.CPUPercent(ctx)
		snap.CPUPercent = metric("cpu", v, err)
	})
	run("load", func() {
		v, err := c.source.Load(ctx)
		snap.Load = metric("load", v, err)
	})
	run("temperature", func() {
		temps, err := c.source.Temperatures(ctx)
		t, ok := PickCPUTemperature(temps)
		if !ok && err == nil {
			err = ErrNoSensor
		}
		if ok {
			// Partial sensor errors still leave a usable reading.
			err = nil
		}
		snap.CPUTemp = metric("temperature", t, err)
	})
	run("memory", func() {
		v, err := c.source.Memory(ctx)
		snap.Memory = metric("memory", v, err)
	})
	run("battery", func() {
		v, err := c.source.Battery(ctx)
		snap.Battery = metric("battery", v, err)
	})
	wg.Wait()

	snap.Collected = c.now()
	return snap
}

func metric[T any](name string, v T, err error) Metric[T] {
	if err != nil {
		logging.Debug("Status", "%s unavailable: %v", name, err)
		return Metric[T]{Err: err}
	}
	return Metric[T]{Value: v}
}

// cpuSensorPreference lists sensor key prefixes in the order they best
// describe the package temperature.
var cpuSensorPreference = []string{
	"coretemp_package_id_0",
	"coretemp_package",
	"k10temp_tctl",
	"k10temp_tdie",
	"k10temp_tccd1",
	"zenpower_tdie",
	"cpu_thermal",
	"cpu-thermal",
	"soc_thermal",
	"acpitz",
	"coretemp",
	"k10temp",
}

// PickCPUTemperature chooses the reading that best represents the CPU. It
// falls back to the first plausible reading.
func PickCPUTemperature(temps []Temperature) (Temperature, bool) {
	var valid []Temperature
	for _, t := range temps {
		if t.Celsius > 0 && t.Celsius < 150 {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		return Temperature{}, false
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Sensor < valid[j].Sensor })
	for _, prefix := range cpuSensorPreference {
		for _, t := range valid {
			if strings.HasPrefix(strings.ToLower(t.Sensor), prefix) {
				return t, true
			}
		}
	}
	return valid[0], true
}
