package sysinfo

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// For mocking in tests
var getBatteries = battery.GetAll

// HostSource reads metrics through gopsutil and the battery package.
type HostSource struct {
	// CPUInterval is the sampling window for CPU usage.
	CPUInterval time.Duration
}

// NewHostSource returns a HostSource sampling CPU usage over one second.
func NewHostSource() *HostSource {
	return &HostSource{CPUInterval: time.Second}
}

func (h *HostSource) Uptime(ctx context.Context) (time.Duration, error) {
	secs, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read uptime: %w", err)
	}
	return time.Duration(secs) * time.Second, nil
}

func (h *HostSource) CPUPercent(ctx context.Context) (float64, error) {
	values, err := cpu.PercentWithContext(ctx, h.CPUInterval, false)
	if err != nil {
		return 0, fmt.Errorf("failed to read cpu usage: %w", err)
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("failed to read cpu usage: no samples")
	}
	return values[0], nil
}

func (h *HostSource) Load(ctx context.Context) (Load, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return Load{}, fmt.Errorf("failed to read load average: %w", err)
	}
	return Load{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}, nil
}

// Temperatures may return readings together with an error when only some
// sensors failed.
func (h *HostSource) Temperatures(ctx context.Context) ([]Temperature, error) {
	stats, err := host.SensorsTemperaturesWithContext(ctx)
	out := make([]Temperature, 0, len(stats))
	for _, s := range stats {
		out = append(out, Temperature{Sensor: s.SensorKey, Celsius: s.Temperature})
	}
	if err != nil {
		return out, fmt.Errorf("failed to read temperature sensors: %w", err)
	}
	return out, nil
}

func (h *HostSource) Memory(ctx context.Context) (Memory, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Memory{}, fmt.Errorf("failed to read memory usage: %w", err)
	}
	return Memory{Total: vm.Total, Used: vm.Used, UsedPercent: vm.UsedPercent}, nil
}

func (h *HostSource) Battery(ctx context.Context) (Battery, error) {
	if err := ctx.Err(); err != nil {
		return Battery{}, err
	}
	bats, err := getBatteries()
	for _, b := range bats {
		if b == nil || b.Full <= 0 {
			continue
		}
		return batteryFrom(b.Current, b.Full, b.ChargeRate, b.State.String()), nil
	}
	if err != nil {
		return Battery{}, fmt.Errorf("failed to read battery: %w", err)
	}
	return Battery{}, ErrNoBattery
}

// batteryFrom converts energy readings in mWh and a rate in mW.
func batteryFrom(current, full, rate float64, state string) Battery {
	b := Battery{
		Percent: math.Min(100, current/full*100),
		State:   state,
	}
	if rate <= 0 {
		return b
	}
	var hours float64
	switch strings.ToLower(state) {
	case "discharging":
		hours = current / rate
	case "charging":
		hours = (full - current) / rate
	}
	if hours > 0 && !math.IsInf(hours, 0) {
		b.Remaining = time.Duration(hours * float64(time.Hour)).Round(time.Minute)
	}
	return b
}
