// Package outbound delivers rendered messages to an external transport. The
// engine hands every confirmed send to a Sender and treats a nil error as
// delivered; it never retries on its own.
package outbound

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-intro-broker/internal/domain"
)

// ErrNoAddress is returned when a message has no destination for its channel.
var ErrNoAddress = errors.New("message has no destination address")

// Message is one rendered, addressed message.
type Message struct {
	BatchID     string         `json:"batch_id"`
	RecipientID string         `json:"recipient_id"`
	Channel     domain.Channel `json:"channel"`
	To          string         `json:"to"`
	Subject     string         `json:"subject,omitempty"`
	Body        string         `json:"body"`
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoAddress
	}
	if !m.Channel.Valid() {
		return fmt.Errorf("unknown channel %q", m.Channel)
	}
	return nil
}

// Sender delivers a message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, m Message) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, m Message) error { return f(ctx, m) }

// LogSender writes messages to a zerolog logger instead of delivering them.
// It is the default transport for local runs.
type LogSender struct {
	Log zerolog.Logger
}

// NewLogSender returns a LogSender writing to l.
func NewLogSender(l zerolog.Logger) *LogSender { return &LogSender{Log: l} }

// Send logs m. Addresses and bodies stay out of the log; only their sizes go in.
func (s *LogSender) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.validate(); err != nil {
		return err
	}
	s.Log.Info().
		Str("batch_id", m.BatchID).
		Str("recipient_id", m.RecipientID).
		Str("channel", string(m.Channel)).
		Int("subject_len", len(m.Subject)).
		Int("body_len", len(m.Body)).
		Msg("outbound message")
	return nil
}
