package app

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"hostrelay/internal/action"
	"hostrelay/internal/auth"
	"hostrelay/internal/capability"
	"hostrelay/internal/config"
	"hostrelay/internal/dispatch"
	"hostrelay/internal/platform"
	"hostrelay/internal/scheduler"
	"hostrelay/internal/session"
	"hostrelay/internal/sysinfo"
	"hostrelay/internal/transport"
	"hostrelay/internal/transport/console"
	"hostrelay/internal/transport/telegram"
	"hostrelay/internal/utils"
	"hostrelay/pkg/logging"
)

// For mocking in tests
var (
	newTransport = func(cfg *Config) (transport.Transport, error) {
		relay := cfg.Relay
		if cfg.Console {
			return console.New(console.Options{Operator: relay.AllowedUserID}), nil
		}
		return telegram.New(relay.BotToken, telegram.Options{
			PollTimeout:        relay.PollTimeout,
			KeepPendingUpdates: relay.KeepPendingUpdates,
			Debug:              cfg.Debug,
		})
	}
	newRunner = func() utils.Runner { return utils.NewExecRunner() }
	hostGOOS  = runtime.GOOS
)

const speechRouteTimeout = 3 * time.Minute

// commandCompleter is implemented by transports that can complete command names.
type commandCompleter interface {
	SetCommands(names []string)
}

// Services holds all the initialized components of the relay
type Services struct {
	Transport    transport.Transport
	Dispatcher   *dispatch.Dispatcher
	Capabilities *capability.Set
	Timer        *scheduler.Timer
	Host         *action.Host

	stopOnce sync.Once
	stopCh   chan struct{}
}

// RequestStop asks the run loop to exit. It never blocks.
func (s *Services) RequestStop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// StopRequested is closed once RequestStop has been called.
func (s *Services) StopRequested() <-chan struct{} {
	return s.stopCh
}

// ProbeCapabilities resolves the host tools for goos.
func ProbeCapabilities(ctx context.Context, runner utils.Runner, goos string) *capability.Set {
	return capability.NewProber(runner, platform.CatalogFor(goos)).
		WithDevices(platform.NewDeviceFinder(runner, goos)).
		Probe(ctx)
}

// InitializeServices probes the host, connects the transport and registers
// every command.
func InitializeServices(ctx context.Context, cfg *Config) (*Services, error) {
	if cfg.Relay == nil {
		return nil, fmt.Errorf("relay configuration not loaded")
	}
	relay := *cfg.Relay

	runner := newRunner()
	caps := ProbeCapabilities(ctx, runner, hostGOOS)
	for _, e := range caps.Report() {
		if e.Available() {
			logging.Info("Bootstrap", "%s", e)
		} else {
			logging.Warn("Bootstrap", "%s (looked for %v)", e, e.Missing)
		}
	}

	tr, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}

	host := &action.Host{
		Device:  relay.DeviceName,
		Caps:    caps,
		Runner:  runner,
		Environ: func() []string { return session.Environ(hostGOOS, os.Environ()) },
		Devices: platform.NewDeviceFinder(runner, hostGOOS),
		Timeout: relay.CommandTimeout,
	}

	s := &Services{
		Transport:    tr,
		Capabilities: caps,
		Timer:        scheduler.New(),
		Host:         host,
		stopCh:       make(chan struct{}),
	}

	gate := auth.NewGate(auth.Identity(relay.AllowedUserID))
	s.Dispatcher = dispatch.New(gate, tr, dispatch.Options{
		QueueSize:      relay.QueueSize,
		CommandTimeout: relay.CommandTimeout,
		Device:         relay.DeviceName,
	})
	if err := registerRoutes(s, relay); err != nil {
		return nil, err
	}
	if c, ok := tr.(commandCompleter); ok {
		var names []string
		for _, r := range s.Dispatcher.Routes() {
			names = append(names, r.Command)
		}
		c.SetCommands(names)
	}
	return s, nil
}

func registerRoutes(s *Services, relay config.RelayConfig) error {
	h := s.Host
	d := s.Dispatcher
	help := d.HelpHandler(h.Device, s.Capabilities)

	routes := []dispatch.Route{
		{Command: "/start", Description: "Show this help", Priority: true, Handler: help},
		{Command: "/help", Description: "Show this help", Priority: true, Handler: help},
		{Command: "/shutdown", Description: "Power off now", Capability: capability.PowerOff,
			Handler: &action.PowerHandler{Host: h, Mode: capability.PowerOff}},
		{Command: "/shutdown_in", Usage: "/shutdown_in <seconds>", Description: "Power off after a delay", Capability: capability.PowerOff,
			Handler: &action.ScheduleHandler{Host: h, Timer: s.Timer, Max: relay.MaxScheduleDelay}},
		{Command: "/cancel_shutdown", Description: "Cancel a scheduled power-off", Priority: true,
			Handler: &action.CancelHandler{Host: h, Timer: s.Timer}},
		{Command: "/restart", Description: "Reboot now", Capability: capability.Reboot,
			Handler: &action.PowerHandler{Host: h, Mode: capability.Reboot}},
		{Command: "/lock", Description: "Lock the screen", Capability: capability.Lock,
			Handler: &action.LockHandler{Host: h}},
		{Command: "/status", Description: "Uptime, CPU, memory and battery",
			Handler: &action.StatusHandler{Host: h, Collector: sysinfo.NewCollector(nil), Timer: s.Timer}},
		{Command: "/whoami", Description: "Account the relay runs as", Priority: true,
			Handler: &action.WhoamiHandler{Host: h}},
		{Command: "/screenshot", Description: "Capture the screen", Capability: capability.Screenshot,
			Handler: &action.ScreenshotHandler{Host: h}},
		{Command: "/say", Usage: "/say <message>", Description: "Speak a message aloud", Capability: capability.Speech,
			Timeout: speechRouteTimeout, Handler: &action.SpeakHandler{Host: h}},
		{Command: "/camera", Description: "Take a webcam photo", Capability: capability.Camera,
			Handler: &action.CameraHandler{Host: h}},
		{Command: "/shutdown_bot", Description: "Stop the relay (the host keeps running)", Priority: true,
			Handler: &action.TerminateHandler{Host: h, Stop: s.RequestStop}},
	}
	for _, r := range routes {
		if err := d.Register(r); err != nil {
			return fmt.Errorf("failed to register %s: %w", r.Command, err)
		}
	}
	return nil
}
