// Package transport defines the messages exchanged with the chat transport.
package transport

import (
	"context"
	"fmt"
	"time"
)

// Message is an inbound chat message.
type Message struct {
	// ID correlates log lines for one inbound message.
	ID string
	// SourceID identifies the message at the transport. Messages with the
	// same non-empty SourceID are the same delivery.
	SourceID   string
	ChatID     int64
	SenderID   int64
	SenderName string
	Text       string
	Received   time.Time
}

// Photo is an image attachment.
type Photo struct {
	Name    string
	Data    []byte
	Caption string
}

// Reply is either a text payload or an image attachment.
type Reply struct {
	Text  string
	Photo *Photo
}

// Empty reports whether there is nothing to send.
func (r Reply) Empty() bool {
	return r.Text == "" && r.Photo == nil
}

// Text builds a text Reply from s as is.
func Text(s string) Reply {
	return Reply{Text: s}
}

// Textf builds a text Reply from a format string.
func Textf(format string, args ...interface{}) Reply {
	return Reply{Text: fmt.Sprintf(format, args...)}
}

// Image builds an image Reply.
func Image(name string, data []byte, caption string) Reply {
	return Reply{Photo: &Photo{Name: name, Data: data, Caption: caption}}
}

// Sender delivers replies to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, reply Reply) error
}

// Transport is a chat transport the relay can receive commands from.
type Transport interface {
	Sender
	// Start begins receiving messages. The channel closes after Stop or when
	// ctx is done.
	Start(ctx context.Context) (<-chan Message, error)
	Stop()
	// Name identifies the connected bot for logging.
	Name() string
}
