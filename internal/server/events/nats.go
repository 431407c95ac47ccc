package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is used when NatsPublisher is given an empty prefix.
const DefaultSubjectPrefix = "auctionhost"

// natsConn is the part of *nats.Conn the publisher needs.
type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NatsPublisher sends each event as JSON on subject "<prefix>.<type>".
type NatsPublisher struct {
	conn   natsConn
	prefix string
}

// natsConnect is a seam for tests.
var natsConnect = func(url string, opts ...nats.Option) (natsConn, error) {
	return nats.Connect(url, opts...)
}

// NewNatsPublisher dials url and returns a publisher bound to prefix.
func NewNatsPublisher(url, prefix string) (*NatsPublisher, error) {
	if url == "" {
		return nil, errors.New("empty nats url")
	}
	conn, err := natsConnect(url, nats.Name("auctionhost"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return newNatsPublisher(conn, prefix), nil
}

func newNatsPublisher(conn natsConn, prefix string) *NatsPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NatsPublisher{conn: conn, prefix: prefix}
}

// Subject returns the subject an event of the given type is published on.
func (p *NatsPublisher) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

func (p *NatsPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.Subject(event.Type), data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NatsPublisher) Close() error {
	return p.conn.Drain()
}
