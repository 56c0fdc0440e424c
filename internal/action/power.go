package action

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"hostrelay/internal/capability"
	"hostrelay/internal/scheduler"
	"hostrelay/internal/transport"
	"hostrelay/pkg/logging"
)

// MaxScheduleDelay bounds /shutdown_in.
const MaxScheduleDelay = 7 * 24 * time.Hour

// firedActionTimeout bounds the power-off run when a scheduled action fires.
const firedActionTimeout = 2 * time.Minute

// PowerHandler powers the host off or reboots it.
type PowerHandler struct {
	Host *Host
	// Mode is capability.PowerOff or capability.Reboot.
	Mode capability.Name
}

func (p *PowerHandler) Handle(ctx context.Context, req Request) transport.Reply {
	h := p.Host
	if err := h.unavailable(p.Mode); err != nil {
		return h.errorReply(err)
	}

	if p.Mode == capability.Reboot {
		req.notify(transport.Textf("%s: Restarting now... 🔁💻", h.Device))
	} else {
		req.notify(transport.Textf("%s: Shutting down now... 🧨💤", h.Device))
	}

	m, err := h.execute(ctx, p.Mode, nil, nil)
	if err != nil {
		return h.errorReply(err)
	}
	return transport.Textf("%s: ✅ %s requested via %s.", h.Device, Label(p.Mode), m.Name)
}

// ScheduleHandler arms a delayed power-off. A new schedule replaces the old one.
type ScheduleHandler struct {
	Host  *Host
	Timer *scheduler.Timer
	// Max is the longest accepted delay. Zero uses MaxScheduleDelay.
	Max time.Duration
}

// ParseDelay validates a /shutdown_in argument. The returned reply is
// non-empty when the argument is rejected.
func ParseDelay(args []string, max time.Duration) (time.Duration, transport.Reply) {
	if len(args) != 1 {
		return 0, transport.Text("Usage: /shutdown_in [seconds]")
	}
	secs, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, transport.Text("Usage: /shutdown_in [seconds]")
	}
	if secs <= 0 {
		return 0, transport.Text("Please provide a positive number of seconds.")
	}
	if max <= 0 {
		max = MaxScheduleDelay
	}
	if secs > int64(max/time.Second) {
		return 0, transport.Textf("❌ Delay too long: the maximum is %d seconds.", int64(max/time.Second))
	}
	return time.Duration(secs) * time.Second, transport.Reply{}
}

func (s *ScheduleHandler) Handle(ctx context.Context, req Request) transport.Reply {
	h := s.Host
	delay, rejected := ParseDelay(req.Args, s.Max)
	if !rejected.Empty() {
		return rejected
	}
	if err := h.unavailable(capability.PowerOff); err != nil {
		return h.errorReply(err)
	}

	_, previous, err := s.Timer.Schedule(delay, func() { s.fire(req) })
	if err != nil {
		return transport.Textf("❌ Scheduled shutdown failed to start: %v", err)
	}

	text := fmt.Sprintf("%s: Scheduled shutdown in %d seconds... ⏳", h.Device, int64(delay/time.Second))
	if previous != nil {
		text += fmt.Sprintf("\nThe previously scheduled shutdown at %s was replaced.", previous.FireAt.Format(time.TimeOnly))
	}
	return transport.Reply{Text: text}
}

// fire runs on the timer goroutine, detached from the request that armed it.
func (s *ScheduleHandler) fire(req Request) {
	h := s.Host
	req.notify(transport.Textf("%s: ⏰ Scheduled time reached. Shutting down now... 🧨💤", h.Device))

	ctx, cancel := context.WithTimeout(context.Background(), firedActionTimeout)
	defer cancel()
	if _, err := h.execute(ctx, capability.PowerOff, nil, nil); err != nil {
		logging.Error("Action", err, "scheduled power-off failed")
		req.notify(h.errorReply(err))
	}
}

// CancelHandler cancels the pending scheduled power-off.
type CancelHandler struct {
	Host  *Host
	Timer *scheduler.Timer
}

func (c *CancelHandler) Handle(ctx context.Context, req Request) transport.Reply {
	h := c.Host
	pending, cancelled := c.Timer.Cancel()

	// A shutdown scheduled outside the relay is cancelled on a best-effort basis.
	osCancelled := false
	if h.Caps.Available(capability.CancelShutdown) {
		if _, err := h.execute(ctx, capability.CancelShutdown, nil, nil); err != nil {
			logging.Debug("Action", "no OS-level shutdown cancelled: %v", err)
		} else {
			osCancelled = true
		}
	}

	switch {
	case cancelled:
		return transport.Textf("%s: ✅ Shutdown canceled (was due at %s).", h.Device, pending.FireAt.Format(time.TimeOnly))
	case osCancelled:
		return transport.Textf("%s: ✅ Shutdown canceled.", h.Device)
	default:
		return transport.Textf("%s: ℹ️ No pending shutdown to cancel.", h.Device)
	}
}

// LockHandler locks the graphical session.
type LockHandler struct {
	Host *Host
}

func (l *LockHandler) Handle(ctx context.Context, req Request) transport.Reply {
	h := l.Host
	m, err := h.execute(ctx, capability.Lock, nil, nil)
	if err != nil {
		return h.errorReply(err)
	}
	return transport.Textf("%s: ✅ Screen lock initiated via %s. 🔒", h.Device, m.Name)
}
