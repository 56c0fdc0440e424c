package config

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingToken  = errors.New("bot token is not configured (set BOT_TOKEN or botToken)")
	ErrMissingUserID = errors.New("allowed user id is not configured (set ALLOWED_USER_ID or allowedUserID)")
	ErrInvalidUserID = errors.New("allowed user id must be a positive integer")
)

// RelayConfig is the top-level configuration structure for hostrelay.
type RelayConfig struct {
	BotToken      string `yaml:"botToken,omitempty"`
	AllowedUserID int64  `yaml:"allowedUserID,omitempty"`
	// DeviceName identifies this host in replies.
	DeviceName string `yaml:"deviceName,omitempty"`

	// PollTimeout is the long-polling timeout in seconds.
	PollTimeout        int           `yaml:"pollTimeout,omitempty"`
	CommandTimeout     time.Duration `yaml:"commandTimeout,omitempty"`
	QueueSize          int           `yaml:"queueSize,omitempty"`
	MaxScheduleDelay   time.Duration `yaml:"maxScheduleDelay,omitempty"`
	KeepPendingUpdates bool          `yaml:"keepPendingUpdates,omitempty"`

	LogLevel string `yaml:"logLevel,omitempty"`
	LogFile  string `yaml:"logFile,omitempty"`
	PIDFile  string `yaml:"pidFile,omitempty"`
}

// Validate checks the settings the relay cannot start without.
func (c RelayConfig) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, ErrMissingToken)
	}
	if err := c.ValidateLocal(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidateLocal checks everything except the bot token. The console
// transport needs no token but still sends as the allowed user.
func (c RelayConfig) ValidateLocal() error {
	var errs []error
	switch {
	case c.AllowedUserID == 0:
		errs = append(errs, ErrMissingUserID)
	case c.AllowedUserID < 0:
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidUserID, c.AllowedUserID))
	}
	if c.PollTimeout < 0 || c.PollTimeout > 600 {
		errs = append(errs, fmt.Errorf("pollTimeout must be between 0 and 600 seconds, got %d", c.PollTimeout))
	}
	if c.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("queueSize must not be negative, got %d", c.QueueSize))
	}
	if c.CommandTimeout < 0 {
		errs = append(errs, fmt.Errorf("commandTimeout must not be negative, got %s", c.CommandTimeout))
	}
	return errors.Join(errs...)
}

// Redacted returns a copy safe for logging.
func (c RelayConfig) Redacted() RelayConfig {
	if len(c.BotToken) > 8 {
		c.BotToken = c.BotToken[:4] + "…" + c.BotToken[len(c.BotToken)-2:]
	} else if c.BotToken != "" {
		c.BotToken = "…"
	}
	return c
}
