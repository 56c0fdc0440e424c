package action

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hostrelay/internal/scheduler"
	"hostrelay/internal/sysinfo"
	"hostrelay/internal/transport"
)

const notAvailable = "N/A"

// SnapshotCollector gathers host metrics.
type SnapshotCollector interface {
	Collect(ctx context.Context) sysinfo.Snapshot
}

// StatusHandler reports host metrics. Metrics that cannot be read show N/A.
type StatusHandler struct {
	Host      *Host
	Collector SnapshotCollector
	// Timer, when set, adds the pending scheduled shutdown to the report.
	Timer *scheduler.Timer
}

func (s *StatusHandler) Handle(ctx context.Context, req Request) transport.Reply {
	snap := s.Collector.Collect(ctx)
	return transport.Reply{Text: FormatStatus(s.Host.Device, snap, s.pending())}
}

func (s *StatusHandler) pending() *scheduler.Pending {
	if s.Timer == nil {
		return nil
	}
	p, ok := s.Timer.Pending()
	if !ok {
		return nil
	}
	return &p
}

// FormatStatus renders a snapshot as the status reply.
func FormatStatus(device string, snap sysinfo.Snapshot, pending *scheduler.Pending) string {
	uptime := notAvailable
	if snap.Uptime.OK() {
		uptime = formatDuration(snap.Uptime.Value)
	}

	cpu := notAvailable
	if snap.CPUPercent.OK() {
		cpu = fmt.Sprintf("%.1f%%", snap.CPUPercent.Value)
	}
	if snap.Load.OK() {
		l := snap.Load.Value
		cpu += fmt.Sprintf(" (load %.2f %.2f %.2f)", l.Load1, l.Load5, l.Load15)
	}

	temp := notAvailable
	if snap.CPUTemp.OK() {
		temp = fmt.Sprintf("%.1f°C", snap.CPUTemp.Value.Celsius)
	}

	memory := notAvailable
	if snap.Memory.OK() {
		m := snap.Memory.Value
		memory = fmt.Sprintf("%s / %s (%.1f%%)", formatBytes(m.Used), formatBytes(m.Total), m.UsedPercent)
	}

	battery, power := notAvailable, notAvailable
	switch {
	case snap.Battery.OK():
		b := snap.Battery.Value
		battery = fmt.Sprintf("%.0f%%", b.Percent)
		if b.Remaining > 0 {
			battery += fmt.Sprintf(" (%s remaining)", formatDuration(b.Remaining))
		}
		if b.State != "" {
			power = b.State
		}
	case errors.Is(snap.Battery.Err, sysinfo.ErrNoBattery):
		battery = notAvailable + " (no battery)"
		power = "AC"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💻 Status for %s\n\n", device)
	fmt.Fprintf(&b, "🕰️ Uptime: %s\n", uptime)
	fmt.Fprintf(&b, "⚡ CPU Load: %s\n", cpu)
	fmt.Fprintf(&b, "🌡️ CPU Temp: %s\n", temp)
	fmt.Fprintf(&b, "🧠 Memory: %s\n", memory)
	fmt.Fprintf(&b, "🔋 Battery: %s\n", battery)
	fmt.Fprintf(&b, "🔌 Power: %s", power)
	if pending != nil {
		now := snap.Collected
		if now.IsZero() {
			now = time.Now()
		}
		fmt.Fprintf(&b, "\n⏳ Scheduled shutdown: in %s", formatDuration(pending.Remaining(now)))
	}
	return b.String()
}

// formatDuration renders d as "2d 3h 4m", or seconds for short spans.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Round(time.Second)/time.Second))
	}
	d = d.Round(time.Minute)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if days > 0 || hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	parts = append(parts, fmt.Sprintf("%dm", minutes))
	return strings.Join(parts, " ")
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
