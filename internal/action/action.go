// Package action implements the host actions the relay can perform. Every
// handler turns its outcome, including failures, into a reply; none of them
// returns an error to the dispatcher.
package action

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"hostrelay/internal/capability"
	"hostrelay/internal/transport"
	"hostrelay/internal/utils"
)

// ErrUnavailable is wrapped by every capability-unavailable error.
var ErrUnavailable = errors.New("capability unavailable")

// Request is one authorized command.
type Request struct {
	Command    string
	Args       []string
	Raw        string
	SenderID   int64
	SenderName string
	ChatID     int64
	// Notify sends an intermediate reply to the requesting chat. It stays
	// usable after Handle returns, which scheduled actions rely on.
	Notify func(transport.Reply)
}

func (r Request) notify(reply transport.Reply) {
	if r.Notify != nil && !reply.Empty() {
		r.Notify(reply)
	}
}

// Handler performs one action.
type Handler interface {
	Handle(ctx context.Context, req Request) transport.Reply
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req Request) transport.Reply

func (f HandlerFunc) Handle(ctx context.Context, req Request) transport.Reply {
	return f(ctx, req)
}

// DeviceLister lists capture devices for per-device methods.
type DeviceLister interface {
	VideoDevices(ctx context.Context) []string
}

// Host is the shared state every handler acts on.
type Host struct {
	// Device is the display name used in replies.
	Device string
	Caps   *capability.Set
	Runner utils.Runner
	// Environ returns the environment for graphical session tools. Nil
	// inherits the process environment.
	Environ func() []string
	Devices DeviceLister
	// TempDir holds capture files. Empty uses os.TempDir.
	TempDir string
	// Timeout bounds each step of methods that do not set their own.
	Timeout time.Duration
}

func (h *Host) timeout(m capability.Method) time.Duration {
	if m.Timeout > 0 {
		return m.Timeout
	}
	if h.Timeout > 0 {
		return h.Timeout
	}
	return 30 * time.Second
}

func (h *Host) tempDir(pattern string) (string, error) {
	dir, err := os.MkdirTemp(h.TempDir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	return dir, nil
}

var actionLabels = map[capability.Name]string{
	capability.PowerOff:       "Power off",
	capability.Reboot:         "Restart",
	capability.CancelShutdown: "Shutdown cancellation",
	capability.Lock:           "Screen lock",
	capability.Screenshot:     "Screenshot",
	capability.Speech:         "Text-to-speech",
	capability.Camera:         "Camera capture",
}

// Label returns the human readable name of a capability.
func Label(name capability.Name) string {
	if l, ok := actionLabels[name]; ok {
		return l
	}
	return string(name)
}

// UnavailableError reports a capability with no usable method on this host.
type UnavailableError struct {
	Capability capability.Name
	Device     string
	// Tools are the candidate methods that were looked for.
	Tools []string
}

func (e *UnavailableError) Error() string {
	if len(e.Tools) == 0 {
		return fmt.Sprintf("%s is not supported on %s", Label(e.Capability), e.Device)
	}
	return fmt.Sprintf("%s is not available on %s: none of %s found", Label(e.Capability), e.Device, strings.Join(e.Tools, ", "))
}

func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// Attempt is one failed method invocation.
type Attempt struct {
	Method string
	Err    error
}

// ExecError reports that every usable method failed.
type ExecError struct {
	Capability capability.Name
	Attempts   []Attempt
}

func (e *ExecError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed", Label(e.Capability))
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n• %s: %v", a.Method, a.Err)
	}
	return b.String()
}

// errorReply renders an error as a reply prefixed for the device.
func (h *Host) errorReply(err error) transport.Reply {
	var unavailable *UnavailableError
	if errors.As(err, &unavailable) {
		return transport.Textf("❌ %s.", unavailable.Error())
	}
	var execErr *ExecError
	if errors.As(err, &execErr) {
		return transport.Textf("❌ %s on %s. Tried:%s", Label(execErr.Capability), h.Device, strings.TrimPrefix(execErr.Error(), Label(execErr.Capability)+" failed"))
	}
	return transport.Textf("❌ %s: %v", h.Device, err)
}
