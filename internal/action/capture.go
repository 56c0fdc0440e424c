package action

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hostrelay/internal/capability"
	"hostrelay/internal/transport"
)

// ScreenshotHandler captures the current display.
type ScreenshotHandler struct {
	Host *Host
}

func (s *ScreenshotHandler) Handle(ctx context.Context, req Request) transport.Reply {
	h := s.Host
	if err := h.unavailable(capability.Screenshot); err != nil {
		return h.errorReply(err)
	}
	req.notify(transport.Textf("%s: Taking screenshot... 📸", h.Device))
	return h.capture(ctx, capability.Screenshot, "screenshot", "🖥️ Screenshot from")
}

// CameraHandler captures a single webcam frame.
type CameraHandler struct {
	Host *Host
}

func (c *CameraHandler) Handle(ctx context.Context, req Request) transport.Reply {
	h := c.Host
	if err := h.unavailable(capability.Camera); err != nil {
		return h.errorReply(err)
	}
	req.notify(transport.Textf("%s: Capturing image... 📷", h.Device))
	return h.capture(ctx, capability.Camera, "camera", "📷 Camera image from")
}

// capture runs a capture capability into a private temporary directory and
// returns the image. The directory is removed before returning.
func (h *Host) capture(ctx context.Context, name capability.Name, prefix, caption string) transport.Reply {
	dir, err := h.tempDir("hostrelay-" + prefix + "-")
	if err != nil {
		return h.errorReply(err)
	}
	defer os.RemoveAll(dir)

	base := fmt.Sprintf("%s_%d.png", prefix, time.Now().Unix())
	vars := map[string]string{
		"dir":  dir,
		"base": base,
		"file": filepath.Join(dir, base),
	}
	m, err := h.execute(ctx, name, vars, nonEmptyFile)
	if err != nil {
		return h.errorReply(err)
	}

	data, err := os.ReadFile(vars["file"])
	if err != nil {
		return h.errorReply(fmt.Errorf("failed to read %s: %w", Label(name), err))
	}
	return transport.Image(base, data, fmt.Sprintf("%s %s (%s)", caption, h.Device, m.Name))
}
