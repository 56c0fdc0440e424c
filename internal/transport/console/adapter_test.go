package console

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostrelay/internal/transport"
)

// scriptedReader returns queued lines, then err.
type scriptedReader struct {
	mu     sync.Mutex
	lines  []string
	err    error
	closed bool
	cfg    *readline.Config
}

func (r *scriptedReader) Readline() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lines) == 0 {
		return "", r.err
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func withReader(t *testing.T, r *scriptedReader) {
	t.Helper()
	orig := newLineReader
	t.Cleanup(func() { newLineReader = orig })
	newLineReader = func(cfg *readline.Config) (lineReader, error) {
		r.cfg = cfg
		return r, nil
	}
}

func collect(t *testing.T, ch <-chan transport.Message) []transport.Message {
	t.Helper()
	var msgs []transport.Message
	timeout := time.After(time.Second)
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				return msgs
			}
			msgs = append(msgs, m)
		case <-timeout:
			t.Fatal("message channel did not close")
		}
	}
}

func TestStart_ReadsCommandsUntilExit(t *testing.T) {
	r := &scriptedReader{lines: []string{"  /status ", "", "/say hello there", "exit", "/lock"}, err: io.EOF}
	withReader(t, r)

	a := New(Options{Operator: 42, Stdout: &bytes.Buffer{}})
	a.SetCommands([]string{"/status", "/say"})
	msgs, err := a.Start(context.Background())
	require.NoError(t, err)

	got := collect(t, msgs)
	require.Len(t, got, 2)
	assert.Equal(t, "/status", got[0].Text)
	assert.Equal(t, "/say hello there", got[1].Text)
	assert.Equal(t, int64(42), got[0].SenderID)
	assert.Equal(t, ChatID, got[0].ChatID)
	assert.Equal(t, "console", got[0].SenderName)
	assert.NotEmpty(t, got[0].ID)
	assert.Empty(t, got[0].SourceID)

	assert.Equal(t, "hostrelay> ", r.cfg.Prompt)
	assert.NotNil(t, r.cfg.AutoComplete)
}

func TestStart_EOFAndInterrupt(t *testing.T) {
	r := &scriptedReader{err: readline.ErrInterrupt}
	withReader(t, r)

	a := New(Options{Operator: 42, Stdout: &bytes.Buffer{}})
	msgs, err := a.Start(context.Background())
	require.NoError(t, err)
	assert.Empty(t, collect(t, msgs))

	a.Stop()
	a.Stop()
	assert.True(t, r.closed)
}

func TestSend_TextAndPhoto(t *testing.T) {
	var out bytes.Buffer
	dir := t.TempDir()
	a := New(Options{Stdout: &out, PhotoDir: dir})

	require.NoError(t, a.Send(context.Background(), ChatID, transport.Reply{Text: "testbox: ✅ Locked."}))
	require.NoError(t, a.Send(context.Background(), ChatID, transport.Image("../shot.png", []byte("png"), "🖥️ Screenshot from testbox")))

	assert.Contains(t, out.String(), "testbox: ✅ Locked.\n")
	assert.Contains(t, out.String(), "🖥️ Screenshot from testbox")

	files, err := filepath.Glob(filepath.Join(dir, "*-shot.png"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}
