// Package console is a local transport that reads commands from the terminal.
// It drives the same dispatcher as the chat transport, so a host can be tried
// out without a bot.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"hostrelay/internal/transport"
	"hostrelay/pkg/logging"
)

// ChatID is the chat every console message belongs to.
const ChatID int64 = 0

type lineReader interface {
	Readline() (string, error)
	Close() error
}

// For mocking in tests
var newLineReader = func(cfg *readline.Config) (lineReader, error) {
	return readline.NewEx(cfg)
}

// Options configures the console.
type Options struct {
	// Operator is the identity every typed command is sent as.
	Operator int64
	// Name is shown as the sender in logs. Defaults to "console".
	Name        string
	HistoryFile string
	// PhotoDir receives image replies. Defaults to a new temp directory.
	PhotoDir string
	Stdin    io.ReadCloser
	Stdout   io.Writer
}

// Adapter implements transport.Transport on a readline prompt.
type Adapter struct {
	opts Options

	mu       sync.Mutex
	rl       lineReader
	commands []string

	stopOnce sync.Once
}

// New creates a console transport.
func New(opts Options) *Adapter {
	if opts.Name == "" {
		opts.Name = "console"
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.HistoryFile == "" {
		opts.HistoryFile = filepath.Join(os.TempDir(), ".hostrelay_history")
	}
	return &Adapter{opts: opts}
}

// SetCommands enables tab completion for the given command names.
func (a *Adapter) SetCommands(names []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.commands = append([]string(nil), names...)
}

// Name identifies the transport for logging.
func (a *Adapter) Name() string {
	return a.opts.Name
}

// Start opens the prompt. The message channel closes on EOF, "exit" or Stop.
func (a *Adapter) Start(ctx context.Context) (<-chan transport.Message, error) {
	a.mu.Lock()
	items := make([]readline.PrefixCompleterInterface, 0, len(a.commands))
	for _, c := range a.commands {
		items = append(items, readline.PcItem(c))
	}
	a.mu.Unlock()

	rl, err := newLineReader(&readline.Config{
		Prompt:            "hostrelay> ",
		HistoryFile:       a.opts.HistoryFile,
		AutoComplete:      readline.NewPrefixCompleter(items...),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             a.opts.Stdin,
		Stdout:            a.opts.Stdout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}
	a.mu.Lock()
	a.rl = rl
	a.mu.Unlock()

	out := make(chan transport.Message)
	go a.readLoop(ctx, rl, out)

	logging.Info("Console", "type a command such as /status, or exit to quit")
	return out, nil
}

func (a *Adapter) readLoop(ctx context.Context, rl lineReader, out chan<- transport.Message) {
	defer close(out)
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return
			}
			continue
		} else if errors.Is(err, io.EOF) {
			return
		} else if err != nil {
			logging.Error("Console", err, "readline failed")
			return
		}

		input := strings.TrimSpace(line)
		switch input {
		case "":
			continue
		case "exit", "quit":
			return
		}

		msg := transport.Message{
			ID:         uuid.NewString(),
			ChatID:     ChatID,
			SenderID:   a.opts.Operator,
			SenderName: a.opts.Name,
			Text:       input,
			Received:   time.Now(),
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// Stop closes the prompt. It is safe to call more than once.
func (a *Adapter) Stop() {
	a.stopOnce.Do(func() {
		a.mu.Lock()
		rl := a.rl
		a.mu.Unlock()
		if rl != nil {
			if err := rl.Close(); err != nil {
				logging.Debug("Console", "closing readline: %v", err)
			}
		}
	})
}

// Send prints text replies and saves photos to PhotoDir.
func (a *Adapter) Send(ctx context.Context, chatID int64, r transport.Reply) error {
	if r.Photo == nil {
		_, err := fmt.Fprintln(a.opts.Stdout, r.Text)
		return err
	}

	path, err := a.savePhoto(r.Photo)
	if err != nil {
		return err
	}
	if r.Photo.Caption != "" {
		_, err = fmt.Fprintf(a.opts.Stdout, "%s\n  saved to %s\n", r.Photo.Caption, path)
	} else {
		_, err = fmt.Fprintf(a.opts.Stdout, "image saved to %s\n", path)
	}
	return err
}

func (a *Adapter) savePhoto(p *transport.Photo) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.opts.PhotoDir == "" {
		dir, err := os.MkdirTemp("", "hostrelay-photos-")
		if err != nil {
			return "", fmt.Errorf("failed to create photo directory: %w", err)
		}
		a.opts.PhotoDir = dir
	}

	name := filepath.Base(p.Name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "image.png"
	}
	name = fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), name)
	path := filepath.Join(a.opts.PhotoDir, name)
	if err := os.WriteFile(path, p.Data, 0o600); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return path, nil
}
