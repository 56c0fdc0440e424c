// Package telegram adapts the Telegram Bot API to the relay transport.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"

	"hostrelay/internal/transport"
	"hostrelay/pkg/logging"
)

const (
	// Telegram rejects longer texts and captions.
	maxMessageLength = 4096
	maxCaptionWidth  = 1024
)

// botClient is the part of *tgbotapi.BotAPI the adapter uses.
type botClient interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Options configures the adapter.
type Options struct {
	// PollTimeout is the long-polling timeout in seconds.
	PollTimeout int
	// KeepPendingUpdates processes messages sent while the relay was offline.
	// By default they are dropped so stale power commands never run.
	KeepPendingUpdates bool
	Debug              bool
}

// Adapter implements transport.Transport on top of long polling.
type Adapter struct {
	bot  botClient
	name string
	opts Options

	stopOnce sync.Once
}

var _ transport.Transport = (*Adapter)(nil)

// New connects to the Bot API with token. It fails if the token is rejected.
func New(token string, opts Options) (*Adapter, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram bot API: %w", err)
	}
	bot.Debug = opts.Debug
	return newAdapter(bot, "@"+bot.Self.UserName, opts), nil
}

func newAdapter(bot botClient, name string, opts Options) *Adapter {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30
	}
	return &Adapter{bot: bot, name: name, opts: opts}
}

// Name returns the bot username.
func (a *Adapter) Name() string {
	return a.name
}

// Start begins long polling and converts updates into transport messages.
func (a *Adapter) Start(ctx context.Context) (<-chan transport.Message, error) {
	if !a.opts.KeepPendingUpdates {
		if _, err := a.bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
			logging.Warn("Telegram", "could not drop pending updates: %v", err)
		} else {
			logging.Debug("Telegram", "dropped updates queued while offline")
		}
	}

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = a.opts.PollTimeout
	cfg.AllowedUpdates = []string{"message"}
	updates := a.bot.GetUpdatesChan(cfg)

	out := make(chan transport.Message)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				a.Stop()
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				msg, ok := convert(upd)
				if !ok {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					a.Stop()
					return
				}
			}
		}
	}()

	logging.Info("Telegram", "%s is polling for commands (timeout %ds)", a.name, a.opts.PollTimeout)
	return out, nil
}

// Stop ends long polling. It is safe to call more than once.
func (a *Adapter) Stop() {
	a.stopOnce.Do(func() {
		logging.Info("Telegram", "stopping update polling")
		a.bot.StopReceivingUpdates()
	})
}

// Send delivers a text or photo reply. Long texts are split across messages.
func (a *Adapter) Send(ctx context.Context, chatID int64, reply transport.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if reply.Photo != nil {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: reply.Photo.Name, Bytes: reply.Photo.Data})
		photo.Caption = runewidth.Truncate(reply.Photo.Caption, maxCaptionWidth, "…")
		if _, err := a.bot.Send(photo); err != nil {
			return fmt.Errorf("failed to send photo to chat %d: %w", chatID, err)
		}
	}
	if reply.Text == "" {
		return nil
	}
	for _, chunk := range splitText(reply.Text, maxMessageLength) {
		if _, err := a.bot.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
		}
	}
	return nil
}

func convert(upd tgbotapi.Update) (transport.Message, bool) {
	m := upd.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return transport.Message{}, false
	}
	name := m.From.FirstName
	if name == "" {
		name = m.From.UserName
	}
	received := time.Now()
	if m.Date > 0 {
		received = time.Unix(int64(m.Date), 0)
	}
	return transport.Message{
		ID:         uuid.NewString(),
		SourceID:   fmt.Sprintf("%d/%d", m.Chat.ID, m.MessageID),
		ChatID:     m.Chat.ID,
		SenderID:   m.From.ID,
		SenderName: name,
		Text:       m.Text,
		Received:   received,
	}, true
}

// splitText cuts s into chunks of at most max runes, preferring line breaks.
func splitText(s string, max int) []string {
	if utf8.RuneCountInString(s) <= max {
		return []string{s}
	}
	var chunks []string
	runes := []rune(s)
	for len(runes) > max {
		cut := max
		for i := max; i > max/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
