package dispatch

import (
	"context"
	"fmt"
	"strings"

	"hostrelay/internal/action"
	"hostrelay/internal/capability"
	"hostrelay/internal/transport"
)

// HelpHandler lists the registered commands and marks the ones the host
// cannot perform.
func (d *Dispatcher) HelpHandler(device string, caps *capability.Set) action.Handler {
	return action.HandlerFunc(func(ctx context.Context, req action.Request) transport.Reply {
		var b strings.Builder
		fmt.Fprintf(&b, "🤖 %s accepts these commands:\n", device)
		for _, r := range d.Routes() {
			fmt.Fprintf(&b, "\n%s", r.Usage)
			if r.Description != "" {
				fmt.Fprintf(&b, " - %s", r.Description)
			}
			if r.Capability != "" && !caps.Available(r.Capability) {
				b.WriteString(" (unavailable)")
			}
		}
		return transport.Reply{Text: b.String()}
	})
}
