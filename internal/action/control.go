package action

import (
	"context"

	"hostrelay/internal/transport"
	"hostrelay/pkg/logging"
)

// TerminateHandler stops the relay itself. The host keeps running.
type TerminateHandler struct {
	Host *Host
	// Stop asks the application to exit. It must not block on the dispatcher.
	Stop func()
}

func (t *TerminateHandler) Handle(ctx context.Context, req Request) transport.Reply {
	// The confirmation goes out before Stop tears the transport down.
	req.notify(transport.Textf("%s: 🛑 Shutting down bot...", t.Host.Device))
	logging.Info("Action", "stop requested by %d", req.SenderID)
	if t.Stop != nil {
		t.Stop()
	}
	return transport.Reply{}
}
