package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryPublishConsume(t *testing.T) {
	// Arrange
	bus := NewMemory()
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Message, 1)
	go func() {
		_ = bus.Consume(ctx, "otp.account_activated", func(_ context.Context, msg Message) error {
			got <- msg
			return nil
		}, WithGroup("notification"))
	}()
	waitForGroup(t, bus, "otp.account_activated")

	// Act
	err := bus.Publish(ctx, "otp.account_activated", OutgoingMessage{
		Body:    []byte(`{"user_id":1}`),
		Headers: map[string]string{"cID": "abc"},
	})

	// Assert
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	select {
	case msg := <-got:
		if string(msg.Body()) != `{"user_id":1}` {
			t.Fatalf("unexpected body %q", msg.Body())
		}
		if msg.Headers()["cID"] != "abc" {
			t.Fatalf("unexpected headers %v", msg.Headers())
		}
		if msg.Topic() != "otp.account_activated" {
			t.Fatalf("unexpected topic %q", msg.Topic())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestMemoryHandlerPanicDoesNotStopConsumer(t *testing.T) {
	bus := NewMemory()
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		_ = bus.Consume(ctx, "topic", func(context.Context, Message) error {
			if calls.Add(1) == 1 {
				panic("boom")
			}
			close(done)
			return nil
		})
	}()
	waitForGroup(t, bus, "topic")

	for range 2 {
		if err := bus.Publish(ctx, "topic", OutgoingMessage{Body: []byte("x")}); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("second message not handled, calls=%d", calls.Load())
	}
}

func TestMemoryValidation(t *testing.T) {
	bus := NewMemory()
	ctx := context.Background()

	if err := bus.Publish(ctx, "", OutgoingMessage{}); !errors.Is(err, ErrTopicRequired) {
		t.Fatalf("expected ErrTopicRequired, got %v", err)
	}
	if err := bus.Consume(ctx, "t", nil); !errors.Is(err, ErrHandlerRequired) {
		t.Fatalf("expected ErrHandlerRequired, got %v", err)
	}

	_ = bus.Close()
	if err := bus.Publish(ctx, "t", OutgoingMessage{}); err == nil {
		t.Fatal("expected error after close")
	}
}

func TestNewFromDriverUnknown(t *testing.T) {
	_, err := NewFromDriver(context.Background(), "carrier-pigeon", FactoryOptions{})
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}

func waitForGroup(t *testing.T, bus *Memory, topic string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		bus.mu.RLock()
		n := len(bus.groups[topic])
		bus.mu.RUnlock()
		if n > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no consumer registered for %q", topic)
}

func TestNewFromDriverPubSubNeedsProject(t *testing.T) {
	_, err := NewFromDriver(context.Background(), DriverPubSub, FactoryOptions{})
	if !errors.Is(err, ErrPubSubProjectRequired) {
		t.Fatalf("expected ErrPubSubProjectRequired, got %v", err)
	}
}
