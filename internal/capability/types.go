package capability

import (
	"strings"
	"time"
)

// Name identifies a logical capability.
type Name string

const (
	PowerOff       Name = "poweroff"
	Reboot         Name = "reboot"
	CancelShutdown Name = "cancel-shutdown"
	Lock           Name = "lock"
	Screenshot     Name = "screenshot"
	Speech         Name = "tts"
	Camera         Name = "camera"
)

// All lists every capability in display order.
var All = []Name{PowerOff, Reboot, CancelShutdown, Lock, Screenshot, Speech, Camera}

// Step is a single command of a Method. Args and Stdin may contain
// placeholders such as {file}, {dir}, {base}, {wav}, {text} and {device}
// that are expanded at execution time.
type Step struct {
	Command string
	Args    []string
	Stdin   string
	// Env adds variables to the child environment; values may hold placeholders.
	Env map[string]string
}

// Method is one way of providing a capability.
type Method struct {
	// Name is shown to the operator, e.g. "loginctl poweroff".
	Name  string
	Steps []Step
	// Requires lists extra executables that must resolve for the Method to be usable.
	Requires []string
	// Timeout bounds each step. Zero falls back to the caller's default.
	Timeout time.Duration
	// Detach marks blocking tools (screen lockers) that are started and left running.
	Detach bool
	// PerDevice methods are tried once for every discovered capture device.
	PerDevice bool
	// Session methods need the graphical session environment.
	Session bool
}

// Executables returns every executable the Method depends on, without duplicates.
func (m Method) Executables() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, s := range m.Steps {
		add(s.Command)
	}
	for _, r := range m.Requires {
		add(r)
	}
	return out
}

// Catalog is the ordered list of candidate Methods per capability for one OS.
type Catalog struct {
	GOOS    string
	Methods map[Name][]Method
}

// Entry describes the probe outcome for one capability.
type Entry struct {
	Name Name
	// Methods are the usable Methods in preference order.
	Methods []Method
	// Missing holds the names of candidate Methods that could not be resolved.
	Missing []string
	// Paths maps every resolved executable to its absolute path.
	Paths map[string]string
}

// Available reports whether at least one Method resolved.
func (e Entry) Available() bool {
	return len(e.Methods) > 0
}

// Candidates returns the names of every Method known for this capability,
// resolved or not.
func (e Entry) Candidates() []string {
	out := make([]string, 0, len(e.Methods)+len(e.Missing))
	for _, m := range e.Methods {
		out = append(out, m.Name)
	}
	return append(out, e.Missing...)
}

// String renders a short human readable summary, e.g. "screenshot: grim, scrot".
func (e Entry) String() string {
	if !e.Available() {
		return string(e.Name) + ": unavailable"
	}
	names := make([]string, len(e.Methods))
	for i, m := range e.Methods {
		names[i] = m.Name
	}
	return string(e.Name) + ": " + strings.Join(names, ", ")
}
