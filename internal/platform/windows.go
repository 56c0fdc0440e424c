package platform

import (
	"hostrelay/internal/capability"
)

const windowsScreenshotScript = `Add-Type -AssemblyName System.Windows.Forms,System.Drawing
$b = [System.Windows.Forms.SystemInformation]::VirtualScreen
$bmp = New-Object System.Drawing.Bitmap $b.Width, $b.Height
$g = [System.Drawing.Graphics]::FromImage($bmp)
$g.CopyFromScreen($b.Left, $b.Top, 0, 0, $bmp.Size)
$bmp.Save($env:RELAY_OUT, [System.Drawing.Imaging.ImageFormat]::Png)
$g.Dispose(); $bmp.Dispose()`

const windowsSpeechScript = `Add-Type -AssemblyName System.Speech
$s = New-Object System.Speech.Synthesis.SpeechSynthesizer
$s.Rate = 0; $s.Volume = 100
$s.Speak([Console]::In.ReadToEnd())`

func powershell(script string) []string {
	return []string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-Command", script}
}

func windowsMethods() map[capability.Name][]capability.Method {
	return map[capability.Name][]capability.Method{
		capability.PowerOff: {
			single("shutdown /s", powerTimeout, "shutdown", "/s", "/t", "1"),
		},
		capability.Reboot: {
			single("shutdown /r", powerTimeout, "shutdown", "/r", "/t", "1"),
		},
		capability.CancelShutdown: {
			single("shutdown /a", powerTimeout, "shutdown", "/a"),
		},
		capability.Lock: {
			single("LockWorkStation", lockTimeout, "rundll32.exe", "user32.dll,LockWorkStation"),
		},
		capability.Screenshot: {
			// The output path travels through RELAY_OUT so it is never spliced into the script.
			{
				Name: "PowerShell CopyFromScreen",
				Steps: []capability.Step{{
					Command: "powershell.exe",
					Args:    powershell(windowsScreenshotScript),
					Env:     map[string]string{"RELAY_OUT": "{file}"},
				}},
				Timeout: captureTimeout,
			},
		},
		capability.Speech: {
			{Name: "System.Speech", Steps: []capability.Step{{Command: "powershell.exe", Args: powershell(windowsSpeechScript), Stdin: "{text}"}}, Timeout: speechTimeout},
		},
		capability.Camera: {
			single("CommandCam", captureTimeout, "CommandCam.exe", "/quiet", "/filename", "{file}"),
		},
	}
}
