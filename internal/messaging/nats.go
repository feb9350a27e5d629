// Package messaging provides the NATS client used by the asynchronous
// moderation worker.
package messaging

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/af-corp/textguard/internal/config"
)

// NATS subjects for moderation traffic.
const (
	SubjectModeration       = "moderation.check"
	SubjectModerationResult = "moderation.result" // + .<session_id>
)

// ResultSubject returns the subject results for sessionID are published on.
func ResultSubject(sessionID string) string {
	return SubjectModerationResult + "." + sessionID
}

// NATSClient wraps the NATS connection and tracks subscriptions for cleanup.
type NATSClient struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

// NewNATSClient connects with the given settings.
func NewNATSClient(cfg config.NATSConfig) (*NATSClient, error) {
	log := slog.With("component", "nats")
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	log.Info("connected", "url", nc.ConnectedUrl())

	return &NATSClient{conn: nc, subs: make(map[string]*nats.Subscription)}, nil
}

func (c *NATSClient) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// Subscribe registers handler on subject. Subscriptions sharing a queue
// group split the messages between them.
func (c *NATSClient) Subscribe(subject, queue string, handler func(msg *nats.Msg)) error {
	var (
		sub *nats.Subscription
		err error
	)
	if queue != "" {
		sub, err = c.conn.QueueSubscribe(subject, queue, handler)
	} else {
		sub, err = c.conn.Subscribe(subject, handler)
	}
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subs[subject] = sub
	c.mu.Unlock()
	return nil
}

// SubscribeModerationCheck delivers moderation requests. Reply is empty
// unless the publisher used request-reply.
func (c *NATSClient) SubscribeModerationCheck(queue string, handler func(data []byte, reply string)) error {
	return c.Subscribe(SubjectModeration, queue, func(msg *nats.Msg) {
		handler(msg.Data, msg.Reply)
	})
}

// PublishModerationResult publishes a result for a specific session.
func (c *NATSClient) PublishModerationResult(sessionID string, data []byte) error {
	return c.Publish(ResultSubject(sessionID), data)
}

// SubscribeModerationResult subscribes to results for a specific session.
func (c *NATSClient) SubscribeModerationResult(sessionID string, handler func(data []byte)) error {
	return c.Subscribe(ResultSubject(sessionID), "", func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// UnsubscribeModerationResult drops the result subscription for a session.
func (c *NATSClient) UnsubscribeModerationResult(sessionID string) error {
	return c.unsubscribe(ResultSubject(sessionID))
}

// Close drains all subscriptions and the connection.
func (c *NATSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for subject, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			slog.Warn("nats drain failed", "subject", subject, "error", err)
		}
	}
	c.subs = make(map[string]*nats.Subscription)

	if err := c.conn.Drain(); err != nil {
		slog.Warn("nats connection drain failed", "error", err)
	}
}

func (c *NATSClient) unsubscribe(subject string) error {
	c.mu.Lock()
	sub, ok := c.subs[subject]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("nats: no subscription for subject %s", subject)
	}
	delete(c.subs, subject)
	c.mu.Unlock()

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("nats unsubscribe %s: %w", subject, err)
	}
	return nil
}
