package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"hostrelay/internal/action"
	"hostrelay/internal/auth"
	"hostrelay/internal/capability"
	"hostrelay/internal/transport"
	"hostrelay/pkg/logging"

	"github.com/patrickmn/go-cache"
)

const (
	defaultQueueSize      = 8
	defaultCommandTimeout = 2 * time.Minute
	sendTimeout           = 30 * time.Second

	// A redelivered update is recognised for this long.
	duplicateWindow = 10 * time.Minute
)

// Route binds a command name to its handler.
type Route struct {
	// Command is the slash command, e.g. "/shutdown_in".
	Command string
	// Usage shows arguments in help, e.g. "/shutdown_in <seconds>".
	Usage       string
	Description string
	// Capability, when set, marks the route unavailable in help if the host
	// lacks it.
	Capability capability.Name
	// Priority routes bypass the serial worker so they run even while a
	// long action is in progress.
	Priority bool
	// Timeout overrides the dispatcher's default command timeout.
	Timeout time.Duration
	Handler action.Handler
}

// Options configures a Dispatcher.
type Options struct {
	QueueSize      int
	CommandTimeout time.Duration
	// Device is used in the busy reply.
	Device string
}

type job struct {
	msg   transport.Message
	cmd   Command
	route Route
}

// Dispatcher checks the sender, parses the command and runs its handler.
// Ordinary commands run one at a time on a single worker.
type Dispatcher struct {
	gate   *auth.Gate
	sender transport.Sender
	opts   Options

	mu     sync.RWMutex
	routes map[string]Route
	order  []string

	queue  chan job
	closed bool
	wg     sync.WaitGroup

	seen *cache.Cache
}

// New creates a Dispatcher. A nil or unconfigured gate denies every sender.
func New(gate *auth.Gate, sender transport.Sender, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = defaultCommandTimeout
	}
	return &Dispatcher{
		gate:   gate,
		sender: sender,
		opts:   opts,
		routes: make(map[string]Route),
		queue:  make(chan job, opts.QueueSize),
		seen:   cache.New(duplicateWindow, 2*duplicateWindow),
	}
}

// Register adds a route. Command names must be unique.
func (d *Dispatcher) Register(r Route) error {
	if !strings.HasPrefix(r.Command, "/") || strings.ContainsAny(r.Command, " \t\n") {
		return fmt.Errorf("invalid command name %q", r.Command)
	}
	if r.Handler == nil {
		return fmt.Errorf("command %s has no handler", r.Command)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.routes[r.Command]; exists {
		return fmt.Errorf("command %s already registered", r.Command)
	}
	if r.Usage == "" {
		r.Usage = r.Command
	}
	d.routes[r.Command] = r
	d.order = append(d.order, r.Command)
	logging.Debug("Dispatch", "registered %s (priority=%t)", r.Command, r.Priority)
	return nil
}

// Routes returns the registered routes in registration order.
func (d *Dispatcher) Routes() []Route {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Route, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.routes[name])
	}
	return out
}

func (d *Dispatcher) lookup(name string) (Route, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.routes[name]
	return r, ok
}

// Run consumes messages until msgs closes or ctx is done, then waits for
// running handlers to finish. Commands already queued when msgs closes still
// run; a cancelled ctx drops them. Run may be called once.
func (d *Dispatcher) Run(ctx context.Context, msgs <-chan transport.Message) error {
	d.wg.Add(1)
	go d.worker(ctx)

	defer d.wg.Wait()
	defer d.closeQueue()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			d.Dispatch(ctx, msg)
		}
	}
}

func (d *Dispatcher) closeQueue() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
}

// enqueue reports false when the queue is full or closed.
func (d *Dispatcher) enqueue(j job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- j:
		return true
	default:
		return false
	}
}

// Dispatch handles one inbound message. The authorization check always comes
// first; a denied sender gets the fixed denial reply and nothing else happens.
func (d *Dispatcher) Dispatch(ctx context.Context, msg transport.Message) {
	if d.duplicate(msg) {
		logging.Warn("Dispatch", "[%s] ignoring redelivered message %s", msg.ID, msg.SourceID)
		return
	}
	cmd, parseErr := Parse(msg.Text)

	if !d.gate.Allow(auth.Identity(msg.SenderID)) {
		logging.Warn("Dispatch", "[%s] unauthorized command %q from %s (%d)", msg.ID, cmd.Name, msg.SenderName, msg.SenderID)
		d.send(ctx, msg.ChatID, transport.Text(auth.DeniedReply))
		return
	}
	if errors.Is(parseErr, ErrEmptyCommand) {
		logging.Debug("Dispatch", "[%s] ignoring message without text", msg.ID)
		return
	}

	logging.Info("Dispatch", "[%s] %s from %s (%d) args=%q", msg.ID, cmd.Name, msg.SenderName, msg.SenderID, cmd.Args)

	route, ok := d.lookup(cmd.Name)
	if !ok {
		d.send(ctx, msg.ChatID, d.unknownReply())
		return
	}

	j := job{msg: msg, cmd: cmd, route: route}
	if route.Priority {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.execute(ctx, j)
		}()
		return
	}

	if !d.enqueue(j) {
		logging.Warn("Dispatch", "[%s] queue full, rejecting %s", msg.ID, cmd.Name)
		d.send(ctx, msg.ChatID, transport.Textf("⏳ %s is busy with other commands. Try %s again shortly.", d.device(), cmd.Name))
	}
}

// duplicate records msg and reports whether it was seen before. A power
// command must not run twice because the transport delivered it twice.
func (d *Dispatcher) duplicate(msg transport.Message) bool {
	if msg.SourceID == "" {
		return false
	}
	return d.seen.Add(msg.SourceID, struct{}{}, cache.DefaultExpiration) != nil
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			if n := len(d.queue); n > 0 {
				logging.Warn("Dispatch", "dropping %d queued commands on shutdown", n)
			}
			return
		case j, ok := <-d.queue:
			if !ok {
				return
			}
			d.execute(ctx, j)
		}
	}
}

// execute runs one handler under a timeout. A panicking handler becomes an
// error reply.
func (d *Dispatcher) execute(ctx context.Context, j job) {
	timeout := j.route.Timeout
	if timeout <= 0 {
		timeout = d.opts.CommandTimeout
	}
	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	reply := d.invoke(hctx, j)
	logging.Debug("Dispatch", "[%s] %s finished in %s", j.msg.ID, j.cmd.Name, time.Since(start).Round(time.Millisecond))

	d.send(ctx, j.msg.ChatID, reply)
}

func (d *Dispatcher) invoke(ctx context.Context, j job) (reply transport.Reply) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Dispatch", fmt.Errorf("panic: %v", r), "[%s] %s handler panicked\n%s", j.msg.ID, j.cmd.Name, debug.Stack())
			reply = transport.Textf("❌ Internal error while running %s: %v", j.cmd.Name, r)
		}
	}()

	chatID := j.msg.ChatID
	req := action.Request{
		Command:    j.cmd.Name,
		Args:       j.cmd.Args,
		Raw:        j.cmd.Raw,
		SenderID:   j.msg.SenderID,
		SenderName: j.msg.SenderName,
		ChatID:     chatID,
		Notify: func(r transport.Reply) {
			// Detached from the request: scheduled actions notify after it ends.
			nctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()
			d.send(nctx, chatID, r)
		},
	}
	return j.route.Handler.Handle(ctx, req)
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, reply transport.Reply) {
	if reply.Empty() {
		return
	}
	if ctx.Err() != nil {
		// The request may have been cut short; the reply still goes out.
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
	}
	if err := d.sender.Send(ctx, chatID, reply); err != nil {
		logging.Error("Dispatch", err, "failed to deliver reply to chat %d", chatID)
	}
}

func (d *Dispatcher) unknownReply() transport.Reply {
	routes := d.Routes()
	names := make([]string, len(routes))
	for i, r := range routes {
		names[i] = r.Command
	}
	return transport.Textf("❓ Unknown command. Available commands: %s", strings.Join(names, ", "))
}

func (d *Dispatcher) device() string {
	if d.opts.Device == "" {
		return "The host"
	}
	return d.opts.Device
}
