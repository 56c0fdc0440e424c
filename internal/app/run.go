package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hostrelay/internal/pidfile"
	"hostrelay/pkg/logging"
)

// runRelay polls the transport and dispatches commands until a signal
// arrives, ctx ends, or /shutdown_bot asks to stop.
func runRelay(ctx context.Context, config *Config, services *Services) error {
	if config.Relay.PIDFile != "" {
		pid, err := pidfile.Acquire(ctx, config.Relay.PIDFile)
		if err != nil {
			logging.Error("Relay", err, "Refusing to start")
			return err
		}
		defer func() {
			if err := pid.Release(); err != nil {
				logging.Warn("Relay", "could not remove pid file: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Info("Relay", "received %s, shutting down", sig)
		case <-services.StopRequested():
			logging.Info("Relay", "stop requested over chat")
		case <-ctx.Done():
		}
		cancel()
	}()

	msgs, err := services.Transport.Start(ctx)
	if err != nil {
		logging.Error("Relay", err, "Failed to start %s", services.Transport.Name())
		return fmt.Errorf("failed to start transport: %w", err)
	}

	available := 0
	report := services.Capabilities.Report()
	for _, e := range report {
		if e.Available() {
			available++
		}
	}
	logging.Info("Relay", "%s is listening as %s (%d/%d capabilities available)",
		services.Host.Device, services.Transport.Name(), available, len(report))

	runErr := services.Dispatcher.Run(ctx, msgs)

	services.Transport.Stop()
	if p, ok := services.Timer.Cancel(); ok {
		logging.Warn("Relay", "discarding scheduled shutdown due at %s", p.FireAt.Format(time.RFC3339))
	}
	logging.Info("Relay", "stopped")
	return runErr
}
