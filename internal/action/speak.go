package action

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"hostrelay/internal/capability"
	"hostrelay/internal/transport"
)

// MaxSpeechLength bounds /say messages in runes.
const MaxSpeechLength = 1000

// SpeakHandler reads text aloud through the first working TTS engine.
type SpeakHandler struct {
	Host *Host
}

func (s *SpeakHandler) Handle(ctx context.Context, req Request) transport.Reply {
	h := s.Host
	text := strings.TrimSpace(req.Raw)
	if text == "" {
		return transport.Text("Usage: /say [message]")
	}
	if utf8.RuneCountInString(text) > MaxSpeechLength {
		return transport.Textf("❌ Message too long: the maximum is %d characters.", MaxSpeechLength)
	}
	if err := h.unavailable(capability.Speech); err != nil {
		return h.errorReply(err)
	}

	dir, err := h.tempDir("hostrelay-tts-")
	if err != nil {
		return h.errorReply(err)
	}
	defer os.RemoveAll(dir)

	vars := map[string]string{
		"text": text,
		"wav":  filepath.Join(dir, "speech.wav"),
	}
	m, err := h.execute(ctx, capability.Speech, vars, nil)
	if err != nil {
		return h.errorReply(err)
	}
	return transport.Textf("%s 📢: '%s' (via %s)", h.Device, text, m.Name)
}
