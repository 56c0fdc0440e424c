// Package dispatch routes authorized chat commands to action handlers.
package dispatch

import (
	"errors"
	"strings"
	"unicode"
)

// ErrEmptyCommand is returned for blank messages.
var ErrEmptyCommand = errors.New("empty command")

// Command is a parsed inbound message.
type Command struct {
	// Name is the first token, e.g. "/shutdown_in". Matching is case-sensitive.
	Name string
	Args []string
	// Raw is the untokenized remainder after the name.
	Raw string
}

// Parse splits text into a command name and arguments. A "@botname" suffix on
// a slash command is dropped, so "/status@my_bot" is "/status".
func Parse(text string) (Command, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Command{}, ErrEmptyCommand
	}

	name, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		name, rest = text[:i], strings.TrimSpace(text[i:])
	}
	if strings.HasPrefix(name, "/") {
		if at := strings.IndexByte(name, '@'); at > 0 {
			name = name[:at]
		}
	}
	return Command{Name: name, Args: strings.Fields(rest), Raw: rest}, nil
}
