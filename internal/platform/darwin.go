package platform

import (
	"hostrelay/internal/capability"
)

func darwinMethods() map[capability.Name][]capability.Method {
	return map[capability.Name][]capability.Method{
		capability.PowerOff: {
			single("System Events shut down", powerTimeout, "osascript", "-e", `tell application "System Events" to shut down`),
		},
		capability.Reboot: {
			single("System Events restart", powerTimeout, "osascript", "-e", `tell application "System Events" to restart`),
		},
		capability.Lock: {
			single("pmset displaysleepnow", lockTimeout, "pmset", "displaysleepnow"),
		},
		capability.Screenshot: {
			single("screencapture", captureTimeout, "screencapture", "-x", "{file}"),
		},
		capability.Speech: {
			{Name: "say", Steps: []capability.Step{{Command: "say", Args: []string{"-f", "-"}, Stdin: "{text}"}}, Timeout: speechTimeout},
		},
		capability.Camera: {
			single("imagesnap", captureTimeout, "imagesnap", "-q", "-w", "1", "{file}"),
			single("ffmpeg avfoundation", captureTimeout, "ffmpeg", "-hide_banner", "-loglevel", "error", "-f", "avfoundation", "-framerate", "30", "-i", "0", "-frames:v", "1", "-y", "{file}"),
		},
	}
}
