package hermes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// ErrClosed is returned when publishing on a closed client.
var ErrClosed = errors.New("event bus closed")

// Client publishes and follows conversation events on NATS.
type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := []nats.Option{
		nats.Name("procstop"),
		nats.Timeout(5 * time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.ConnectHandler(func(nc *nats.Conn) {
			logger.Info("event bus connected", "url", nc.ConnectedUrlRedacted())
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("event bus disconnected, events are buffered", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("event bus reconnected", "reconnects", nc.Stats().Reconnects)
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect event bus: %w", err)
	}
	return &Client{conn: nc, logger: logger}, nil
}

// Publish sends data as JSON. While reconnecting, messages are buffered by
// the connection.
func (c *Client) Publish(subject string, data any) error {
	if c.conn.IsClosed() {
		return ErrClosed
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode event for %s: %w", subject, err)
	}
	if err := c.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	c.logger.Debug("event published", "subject", subject, "bytes", len(payload))
	return nil
}

// SubscribeEvents delivers decoded conversation events on subject, which may
// be a wildcard. Payloads that are not events are logged and dropped.
func (c *Client) SubscribeEvents(subject string, handler func(subject string, ev ConversationEvent)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		var ev ConversationEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			c.logger.Warn("undecodable conversation event", "subject", msg.Subject, "error", err)
			return
		}
		handler(msg.Subject, ev)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("following conversation events", "subject", subject)
	return nil
}

// Connected reports whether the connection to the bus is currently up.
func (c *Client) Connected() bool {
	return c.conn.IsConnected()
}

// Close drains subscriptions and pending publishes before closing.
func (c *Client) Close() {
	c.subs = nil
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("event bus drain failed", "error", err)
		c.conn.Close()
	}
}
