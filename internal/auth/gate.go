// Package auth decides which chat senders may issue commands.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DeniedReply is sent to every sender that fails the gate.
const DeniedReply = "❌ Unauthorized user."

// ErrInvalidIdentity is returned for identities that are not positive integers.
var ErrInvalidIdentity = errors.New("identity must be a positive integer")

// Identity is a chat user id.
type Identity int64

// ParseIdentity parses a chat user id such as "123456789".
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
	}
	return Identity(v), nil
}

func (i Identity) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// Gate allows exactly one operator identity. The zero Gate, or one built
// from an unset identity, denies everyone.
type Gate struct {
	allowed Identity
}

// NewGate creates a Gate for the given operator.
func NewGate(allowed Identity) *Gate {
	return &Gate{allowed: allowed}
}

// Configured reports whether an operator identity is set.
func (g *Gate) Configured() bool {
	return g != nil && g.allowed > 0
}

// Allow reports whether sender may issue commands.
func (g *Gate) Allow(sender Identity) bool {
	if !g.Configured() {
		return false
	}
	return sender == g.allowed
}

// Operator returns the configured identity.
func (g *Gate) Operator() Identity {
	if g == nil {
		return 0
	}
	return g.allowed
}
