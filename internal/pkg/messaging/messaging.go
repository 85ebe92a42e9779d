package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrTopicRequired is returned when publish or consume gets an empty topic.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrGroupRequired is returned when the driver needs a consumer group.
	ErrGroupRequired = errors.New("messaging: consumer group is required")
)

// Messaging is a broker client able to publish and consume.
type Messaging interface {
	io.Closer

	// Publish sends msg to topic.
	Publish(ctx context.Context, topic string, msg OutgoingMessage) error
	// Consume blocks, delivering messages from topic to handler until ctx
	// is done or the client is closed.
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one message.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to publish.
type OutgoingMessage struct {
	// Body is the payload.
	Body []byte
	// Key is used for partitioning by Kafka and ignored elsewhere.
	Key []byte
	// Headers are dropped by brokers without header support (NSQ).
	Headers map[string]string
}

// Message is a received message.
type Message interface {
	Body() []byte
	Headers() map[string]string
	Topic() string
	Timestamp() time.Time
}

type basicMessage struct {
	body    []byte
	headers map[string]string
	topic   string
	ts      time.Time
}

func (m *basicMessage) Body() []byte               { return m.body }
func (m *basicMessage) Headers() map[string]string { return m.headers }
func (m *basicMessage) Topic() string              { return m.topic }
func (m *basicMessage) Timestamp() time.Time       { return m.ts }
