package action

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"hostrelay/internal/capability"
	"hostrelay/internal/transport"
	"hostrelay/internal/utils"
)

type runCall struct {
	name string
	args []string
	opts utils.RunOptions
}

// fakeRunner records every invocation. Commands listed in fail return that
// error; onRun can create output files.
type fakeRunner struct {
	mu    sync.Mutex
	calls []runCall
	fail  map[string]error
	onRun func(name string, args []string, opts utils.RunOptions)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string, opts utils.RunOptions) (utils.RunResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, runCall{name: name, args: args, opts: opts})
	onRun := f.onRun
	err := f.fail[name]
	f.mu.Unlock()

	if onRun != nil {
		onRun(name, args, opts)
	}
	if err != nil {
		return utils.RunResult{ExitCode: 1}, err
	}
	return utils.RunResult{}, nil
}

func (f *fakeRunner) LookPath(file string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.name
	}
	return out
}

func (f *fakeRunner) last() runCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakeDevices []string

func (d fakeDevices) VideoDevices(context.Context) []string { return d }

// notes collects intermediate replies.
type notes struct {
	mu      sync.Mutex
	replies []transport.Reply
}

func (n *notes) add(r transport.Reply) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replies = append(n.replies, r)
}

func (n *notes) texts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, r := range n.replies {
		out = append(out, r.Text)
	}
	return out
}

func method(name, command string, args ...string) capability.Method {
	return capability.Method{Name: name, Steps: []capability.Step{{Command: command, Args: args}}, Timeout: time.Second}
}

func newHost(runner utils.Runner, entries ...capability.Entry) *Host {
	return &Host{
		Device:  "testbox",
		Caps:    capability.NewSet("linux", entries...),
		Runner:  runner,
		TempDir: os.TempDir(),
		Timeout: time.Second,
	}
}

func powerEntry() capability.Entry {
	return capability.Entry{
		Name: capability.PowerOff,
		Methods: []capability.Method{
			method("loginctl poweroff", "loginctl", "poweroff"),
			method("systemctl poweroff", "systemctl", "poweroff"),
		},
	}
}

func request(command string, args ...string) Request {
	raw := ""
	for i, a := range args {
		if i > 0 {
			raw += " "
		}
		raw += a
	}
	return Request{Command: command, Args: args, Raw: raw, SenderID: 42, ChatID: 7}
}
