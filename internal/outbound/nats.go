package outbound

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn the sender needs.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// NATSSender publishes each message as JSON on <prefix>.email or <prefix>.sms.
// A send only succeeds after the server acknowledged a flush, so a nil error
// means the message reached the broker.
type NATSSender struct {
	pub    Publisher
	prefix string
	closer func()
}

// NewNATSSender wraps an existing publisher.
func NewNATSSender(pub Publisher, prefix string) *NATSSender {
	return &NATSSender{pub: pub, prefix: strings.TrimSuffix(strings.TrimSpace(prefix), ".")}
}

// DialNATS connects to url and returns a sender owning the connection.
func DialNATS(url, prefix, name string) (*NATSSender, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	s := NewNATSSender(nc, prefix)
	s.closer = nc.Close
	return s, nil
}

// Subject returns the subject a message is published on.
func (s *NATSSender) Subject(m Message) string {
	return s.prefix + "." + strings.ToLower(string(m.Channel))
}

// Send publishes m and waits for the flush round trip.
func (s *NATSSender) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	if err := m.validate(); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := s.pub.Publish(s.Subject(m), data); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if err := s.pub.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Close releases the connection when the sender owns one.
func (s *NATSSender) Close() {
	if s.closer != nil {
		s.closer()
	}
}
