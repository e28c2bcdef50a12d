package hermes

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/MikeSquared-Agency/parley/internal/transcript"
)

// SubjectTranscriptAppended carries every message added to the chat transcript.
const SubjectTranscriptAppended = "parley.transcript.appended"

// AppendedEvent is the payload published on SubjectTranscriptAppended.
type AppendedEvent struct {
	EventType string                 `json:"event_type"`
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
	Message   transcript.ChatMessage `json:"message"`
}

func NewAppendedEvent(msg transcript.ChatMessage) AppendedEvent {
	return AppendedEvent{
		EventType: "transcript.appended",
		Source:    "parley",
		Timestamp: time.Now().UTC(),
		Message:   msg,
	}
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("parley"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// TranscriptObserver publishes each appended message. Failures are logged,
// never surfaced to the chat.
func (c *Client) TranscriptObserver() transcript.Observer {
	return func(msg transcript.ChatMessage) {
		if err := c.Publish(SubjectTranscriptAppended, NewAppendedEvent(msg)); err != nil {
			c.logger.Warn("failed to publish transcript message", "id", msg.ID, "error", err)
		}
	}
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
