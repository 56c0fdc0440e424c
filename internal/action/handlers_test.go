package action

import (
	"context"
	"errors"
	"os"
	"os/user"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostrelay/internal/capability"
	"hostrelay/internal/scheduler"
	"hostrelay/internal/sysinfo"
	"hostrelay/internal/transport"
	"hostrelay/internal/utils"
)

func TestSpeakHandler_Usage(t *testing.T) {
	runner := &fakeRunner{}
	h := &SpeakHandler{Host: newHost(runner)}

	reply := h.Handle(context.Background(), request("/say"))
	assert.Equal(t, "Usage: /say [message]", reply.Text)
	reply = h.Handle(context.Background(), Request{Command: "/say", Raw: "   "})
	assert.Equal(t, "Usage: /say [message]", reply.Text)
	assert.Empty(t, runner.commands())
}

func TestSpeakHandler_UnavailableDoesNotPanic(t *testing.T) {
	h := &SpeakHandler{Host: newHost(&fakeRunner{}, capability.Entry{Name: capability.Speech, Missing: []string{"espeak-ng", "spd-say"}})}

	var reply transport.Reply
	assert.NotPanics(t, func() {
		reply = h.Handle(context.Background(), request("/say", "hello"))
	})
	assert.True(t, strings.HasPrefix(reply.Text, "❌ Text-to-speech is not available on testbox"))
}

func TestSpeakHandler_ExpandsTextOnce(t *testing.T) {
	runner := &fakeRunner{fail: map[string]error{"espeak-ng": errors.New("no audio device")}}
	host := newHost(runner, capability.Entry{Name: capability.Speech, Methods: []capability.Method{
		method("espeak-ng", "espeak-ng", "--", "{text}"),
		{Name: "festival", Steps: []capability.Step{{Command: "festival", Args: []string{"--tts"}, Stdin: "{text}"}}},
	}})

	req := Request{Command: "/say", Args: []string{"hi", "{wav}"}, Raw: "hi  {wav}"}
	reply := (&SpeakHandler{Host: host}).Handle(context.Background(), req)
	assert.Equal(t, "testbox 📢: 'hi  {wav}' (via festival)", reply.Text)

	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{"--", "hi  {wav}"}, runner.calls[0].args)
	assert.Equal(t, "hi  {wav}", runner.calls[1].opts.Stdin)
}

func TestSpeakHandler_TooLong(t *testing.T) {
	h := &SpeakHandler{Host: newHost(&fakeRunner{})}
	reply := h.Handle(context.Background(), Request{Raw: strings.Repeat("a", MaxSpeechLength+1)})
	assert.Contains(t, reply.Text, "Message too long")
}

func writeImage(args []string) {
	for _, a := range args {
		if strings.HasSuffix(a, ".png") {
			_ = os.WriteFile(a, []byte("PNGDATA"), 0o600)
		}
	}
}

func TestScreenshotHandler_SkipsEmptyOutput(t *testing.T) {
	tmp := t.TempDir()
	runner := &fakeRunner{}
	runner.onRun = func(name string, args []string, _ utils.RunOptions) {
		if name == "grim" {
			writeImage(args)
		}
	}
	host := newHost(runner, capability.Entry{Name: capability.Screenshot, Methods: []capability.Method{
		method("grimblast", "grimblast", "save", "screen", "{file}"),
		method("grim", "grim", "{file}"),
	}})
	host.TempDir = tmp
	n := &notes{}
	req := request("/screenshot")
	req.Notify = n.add

	reply := (&ScreenshotHandler{Host: host}).Handle(context.Background(), req)
	require.NotNil(t, reply.Photo, reply.Text)
	assert.Equal(t, []byte("PNGDATA"), reply.Photo.Data)
	assert.Equal(t, "🖥️ Screenshot from testbox (grim)", reply.Photo.Caption)
	assert.Equal(t, []string{"grimblast", "grim"}, runner.commands())
	assert.Equal(t, []string{"testbox: Taking screenshot... 📸"}, n.texts())

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary capture files are removed")
}

func TestScreenshotHandler_AllFail(t *testing.T) {
	runner := &fakeRunner{fail: map[string]error{"grim": errors.New("compositor doesn't support wlr-screencopy")}}
	host := newHost(runner, capability.Entry{Name: capability.Screenshot, Methods: []capability.Method{
		method("grim", "grim", "{file}"),
	}})
	host.TempDir = t.TempDir()

	reply := (&ScreenshotHandler{Host: host}).Handle(context.Background(), request("/screenshot"))
	assert.Nil(t, reply.Photo)
	assert.Contains(t, reply.Text, "❌ Screenshot on testbox. Tried:")
	assert.Contains(t, reply.Text, "wlr-screencopy")
}

func TestScreenshotHandler_StepEnv(t *testing.T) {
	runner := &fakeRunner{}
	runner.onRun = func(_ string, _ []string, opts utils.RunOptions) {
		for _, kv := range opts.Env {
			if v, ok := strings.CutPrefix(kv, "RELAY_OUT="); ok {
				_ = os.WriteFile(v, []byte("x"), 0o600)
			}
		}
	}
	host := newHost(runner, capability.Entry{Name: capability.Screenshot, Methods: []capability.Method{{
		Name:  "PowerShell CopyFromScreen",
		Steps: []capability.Step{{Command: "powershell.exe", Args: []string{"-Command", "save"}, Env: map[string]string{"RELAY_OUT": "{file}"}}},
	}}})
	host.TempDir = t.TempDir()

	reply := (&ScreenshotHandler{Host: host}).Handle(context.Background(), request("/screenshot"))
	require.NotNil(t, reply.Photo, reply.Text)
	assert.Equal(t, []string{"-Command", "save"}, runner.last().args)
}

func TestCameraHandler_TriesEachDevice(t *testing.T) {
	runner := &fakeRunner{}
	runner.onRun = func(_ string, args []string, _ utils.RunOptions) {
		if args[len(args)-2] == "/dev/video2" {
			writeImage(args)
		}
	}
	host := newHost(runner, capability.Entry{Name: capability.Camera, Methods: []capability.Method{{
		Name:      "ffmpeg v4l2",
		Steps:     []capability.Step{{Command: "ffmpeg", Args: []string{"-i", "{device}", "{file}"}}},
		PerDevice: true,
	}}})
	host.TempDir = t.TempDir()
	host.Devices = fakeDevices{"/dev/video0", "/dev/video2"}

	reply := (&CameraHandler{Host: host}).Handle(context.Background(), request("/camera"))
	require.NotNil(t, reply.Photo, reply.Text)
	assert.Equal(t, "📷 Camera image from testbox (ffmpeg v4l2)", reply.Photo.Caption)
	assert.Len(t, runner.calls, 2)
}

func TestCameraHandler_NoDevices(t *testing.T) {
	runner := &fakeRunner{}
	host := newHost(runner, capability.Entry{Name: capability.Camera, Methods: []capability.Method{{
		Name:      "fswebcam",
		Steps:     []capability.Step{{Command: "fswebcam", Args: []string{"-d", "{device}", "{file}"}}},
		PerDevice: true,
	}}})
	host.TempDir = t.TempDir()
	host.Devices = fakeDevices{}

	reply := (&CameraHandler{Host: host}).Handle(context.Background(), request("/camera"))
	assert.Contains(t, reply.Text, "fswebcam: no capture devices found")
	assert.Empty(t, runner.commands())
}

type fakeCollector struct {
	snap sysinfo.Snapshot
}

func (f fakeCollector) Collect(context.Context) sysinfo.Snapshot { return f.snap }

func TestStatusHandler_PartialData(t *testing.T) {
	snap := sysinfo.Snapshot{
		Uptime:     sysinfo.Metric[time.Duration]{Value: 26*time.Hour + 5*time.Minute},
		CPUPercent: sysinfo.Metric[float64]{Value: 7.3},
		Load:       sysinfo.Metric[sysinfo.Load]{Err: errors.New("unsupported")},
		CPUTemp:    sysinfo.Metric[sysinfo.Temperature]{Err: sysinfo.ErrNoSensor},
		Memory:     sysinfo.Metric[sysinfo.Memory]{Value: sysinfo.Memory{Total: 8 << 30, Used: 2 << 30, UsedPercent: 25}},
		Battery:    sysinfo.Metric[sysinfo.Battery]{Err: sysinfo.ErrNoBattery},
		Collected:  time.Now(),
	}
	h := &StatusHandler{Host: newHost(&fakeRunner{}), Collector: fakeCollector{snap: snap}}

	reply := h.Handle(context.Background(), request("/status"))
	assert.Equal(t, "💻 Status for testbox\n\n"+
		"🕰️ Uptime: 1d 2h 5m\n"+
		"⚡ CPU Load: 7.3%\n"+
		"🌡️ CPU Temp: N/A\n"+
		"🧠 Memory: 2.0 GiB / 8.0 GiB (25.0%)\n"+
		"🔋 Battery: N/A (no battery)\n"+
		"🔌 Power: AC", reply.Text)
}

func TestStatusHandler_AllMissingStillReplies(t *testing.T) {
	failed := errors.New("denied")
	snap := sysinfo.Snapshot{
		Uptime:     sysinfo.Metric[time.Duration]{Err: failed},
		CPUPercent: sysinfo.Metric[float64]{Err: failed},
		Load:       sysinfo.Metric[sysinfo.Load]{Err: failed},
		CPUTemp:    sysinfo.Metric[sysinfo.Temperature]{Err: failed},
		Memory:     sysinfo.Metric[sysinfo.Memory]{Err: failed},
		Battery:    sysinfo.Metric[sysinfo.Battery]{Err: failed},
	}
	timer := scheduler.New()
	defer timer.Cancel()
	_, _, err := timer.Schedule(time.Hour, func() {})
	require.NoError(t, err)

	h := &StatusHandler{Host: newHost(&fakeRunner{}), Collector: fakeCollector{snap: snap}, Timer: timer}
	reply := h.Handle(context.Background(), request("/status"))
	assert.Equal(t, 6, strings.Count(reply.Text, "N/A"))
	assert.Contains(t, reply.Text, "⏳ Scheduled shutdown: in")
}

func TestFormatDurationAndBytes(t *testing.T) {
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "5m", formatDuration(5*time.Minute))
	assert.Equal(t, "1h 0m", formatDuration(time.Hour))
	assert.Equal(t, "2d 0h 1m", formatDuration(48*time.Hour+time.Minute))

	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "3.0 GiB", formatBytes(3<<30))
}

func TestWhoamiHandler_Idempotent(t *testing.T) {
	origUser, origGroup := currentUser, lookupGroupID
	defer func() { currentUser, lookupGroupID = origUser, origGroup }()

	calls := 0
	currentUser = func() (*user.User, error) {
		calls++
		return &user.User{Uid: "1000", Gid: "1000", Username: "relay-test-nonexistent", Name: "Relay"}, nil
	}

	h := &WhoamiHandler{Host: newHost(&fakeRunner{})}
	first := h.Handle(context.Background(), request("/whoami"))
	second := h.Handle(context.Background(), request("/whoami"))

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Contains(t, first.Text, "👤 Username: relay-test-nonexistent on testbox")
	assert.Contains(t, first.Text, "🆔 UID: 1000 | GID: 1000")
}

func TestWhoamiHandler_LookupFailure(t *testing.T) {
	origUser := currentUser
	defer func() { currentUser = origUser }()
	currentUser = func() (*user.User, error) { return nil, errors.New("no passwd entry") }
	t.Setenv("USER", "fallback")

	reply := (&WhoamiHandler{Host: newHost(&fakeRunner{})}).Handle(context.Background(), request("/whoami"))
	assert.Equal(t, "👤 Username: fallback on testbox", reply.Text)
}

func TestTerminateHandler_ConfirmsBeforeStopping(t *testing.T) {
	var order []string
	h := &TerminateHandler{Host: newHost(&fakeRunner{}), Stop: func() { order = append(order, "stop") }}
	req := request("/shutdown_bot")
	req.Notify = func(r transport.Reply) { order = append(order, r.Text) }

	reply := h.Handle(context.Background(), req)
	assert.True(t, reply.Empty())
	assert.Equal(t, []string{"testbox: 🛑 Shutting down bot...", "stop"}, order)
}

func TestExecute_CancelledContext(t *testing.T) {
	runner := &fakeRunner{}
	host := newHost(runner, capability.Entry{Name: capability.Lock, Methods: []capability.Method{method("loginctl lock-session", "loginctl", "lock-session")}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := host.execute(ctx, capability.Lock, nil, nil)
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.ErrorIs(t, execErr.Attempts[0].Err, context.Canceled)
	assert.Empty(t, runner.commands())
}

func TestUnavailableError(t *testing.T) {
	err := &UnavailableError{Capability: capability.Camera, Device: "pi", Tools: []string{"fswebcam"}}
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "Camera capture is not available on pi: none of fswebcam found", err.Error())
}
