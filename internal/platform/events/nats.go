package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

type NATS struct {
	conn    *nats.Conn
	subject string
}

func NewNATS(url, subject string) (*NATS, error) {
	if url == "" {
		return nil, errors.New("nats events driver needs events.nats_url")
	}
	nc, err := nats.Connect(url, nats.RetryOnFailedConnect(true), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("nats.Connect: %w", err)
	}
	return &NATS{conn: nc, subject: subject}, nil
}

// Publish sends to <subject>.<event type>.
func (n *NATS) Publish(_ context.Context, e Event) error {
	data, err := encode(e)
	if err != nil {
		return err
	}
	return n.conn.Publish(subjectFor(n.subject, e), data)
}

func subjectFor(base string, e Event) string {
	if base == "" {
		return e.Type
	}
	return base + "." + e.Type
}

func (n *NATS) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}
