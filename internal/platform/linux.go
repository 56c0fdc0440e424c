package platform

import (
	"hostrelay/internal/capability"
)

func login1(method string) []string {
	return []string{
		"--system", "--print-reply", "--dest=org.freedesktop.login1",
		"/org/freedesktop/login1", "org.freedesktop.login1.Manager." + method, "boolean:false",
	}
}

func linuxMethods() map[capability.Name][]capability.Method {
	return map[capability.Name][]capability.Method{
		capability.PowerOff: {
			single("loginctl poweroff", powerTimeout, "loginctl", "poweroff"),
			single("systemctl poweroff", powerTimeout, "systemctl", "poweroff"),
			single("D-Bus login1 PowerOff", powerTimeout, "dbus-send", login1("PowerOff")...),
		},
		capability.Reboot: {
			single("loginctl reboot", powerTimeout, "loginctl", "reboot"),
			single("systemctl reboot", powerTimeout, "systemctl", "reboot"),
			single("D-Bus login1 Reboot", powerTimeout, "dbus-send", login1("Reboot")...),
		},
		capability.CancelShutdown: {
			single("shutdown -c", powerTimeout, "shutdown", "-c"),
		},
		capability.Lock: {
			{Name: "hyprlock", Steps: []capability.Step{step("hyprlock")}, Detach: true, Session: true, Timeout: lockTimeout},
			{Name: "swaylock", Steps: []capability.Step{step("swaylock", "-f")}, Session: true, Timeout: lockTimeout},
			{Name: "hyprctl exec hyprlock", Steps: []capability.Step{step("hyprctl", "dispatch", "exec", "hyprlock")}, Requires: []string{"hyprlock"}, Session: true, Timeout: lockTimeout},
			{Name: "loginctl lock-session", Steps: []capability.Step{step("loginctl", "lock-session")}, Session: true, Timeout: lockTimeout},
			{Name: "xdg-screensaver lock", Steps: []capability.Step{step("xdg-screensaver", "lock")}, Session: true, Timeout: lockTimeout},
		},
		capability.Screenshot: {
			{Name: "grimblast", Steps: []capability.Step{step("grimblast", "save", "screen", "{file}")}, Session: true, Timeout: captureTimeout},
			{Name: "hyprshot", Steps: []capability.Step{step("hyprshot", "-m", "output", "-o", "{dir}", "-f", "{base}", "--silent")}, Session: true, Timeout: captureTimeout},
			{Name: "grim", Steps: []capability.Step{step("grim", "{file}")}, Session: true, Timeout: captureTimeout},
			{Name: "gnome-screenshot", Steps: []capability.Step{step("gnome-screenshot", "-f", "{file}")}, Session: true, Timeout: captureTimeout},
			{Name: "spectacle", Steps: []capability.Step{step("spectacle", "-b", "-n", "-f", "-o", "{file}")}, Session: true, Timeout: captureTimeout},
			{Name: "scrot", Steps: []capability.Step{step("scrot", "-o", "{file}")}, Session: true, Timeout: captureTimeout},
			{Name: "ImageMagick import", Steps: []capability.Step{step("import", "-window", "root", "{file}")}, Session: true, Timeout: captureTimeout},
		},
		capability.Speech: {
			{Name: "espeak-ng", Steps: []capability.Step{step("espeak-ng", "-a", "150", "-s", "160", "--", "{text}")}, Session: true, Timeout: speechTimeout},
			{
				Name: "pico2wave+aplay",
				Steps: []capability.Step{
					step("pico2wave", "--wave", "{wav}", "--", "{text}"),
					step("aplay", "-q", "{wav}"),
				},
				Session: true,
				Timeout: speechTimeout,
			},
			{Name: "espeak", Steps: []capability.Step{step("espeak", "-a", "150", "-s", "160", "--", "{text}")}, Session: true, Timeout: speechTimeout},
			{Name: "festival", Steps: []capability.Step{{Command: "festival", Args: []string{"--tts"}, Stdin: "{text}"}}, Session: true, Timeout: speechTimeout},
			{Name: "spd-say", Steps: []capability.Step{step("spd-say", "--wait", "--", "{text}")}, Session: true, Timeout: speechTimeout},
		},
		capability.Camera: {
			{
				Name:      "ffmpeg v4l2",
				Steps:     []capability.Step{step("ffmpeg", "-hide_banner", "-loglevel", "error", "-f", "v4l2", "-i", "{device}", "-frames:v", "1", "-y", "{file}")},
				PerDevice: true,
				Timeout:   captureTimeout,
			},
			{
				Name:      "fswebcam",
				Steps:     []capability.Step{step("fswebcam", "-q", "-d", "{device}", "-r", "1280x720", "-S", "5", "--no-banner", "--png", "9", "{file}")},
				PerDevice: true,
				Timeout:   captureTimeout,
			},
		},
	}
}
