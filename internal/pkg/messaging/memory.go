package messaging

import (
	"context"
	"io"
	"maps"
	"sync"
	"time"
)

// Memory is an in-process bus for local runs and tests. Each published
// message reaches one consumer per group. Failed deliveries are dropped.
type Memory struct {
	mu     sync.RWMutex
	groups map[string]map[string]*memoryGroup
	closed bool
	done   chan struct{}
}

type memoryGroup struct {
	ch chan *basicMessage
}

// NewMemory returns an empty bus.
func NewMemory() *Memory {
	return &Memory{
		groups: make(map[string]map[string]*memoryGroup),
		done:   make(chan struct{}),
	}
}

// Close stops every running Consume.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish fans msg out to every group subscribed to topic. It blocks while a
// group's buffer is full.
func (m *Memory) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if topic == "" {
		return ErrTopicRequired
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return io.ErrClosedPipe
	}
	groups := make([]*memoryGroup, 0, len(m.groups[topic]))
	for _, g := range m.groups[topic] {
		groups = append(groups, g)
	}
	m.mu.RUnlock()

	for _, g := range groups {
		bm := &basicMessage{
			body:    append([]byte(nil), msg.Body...),
			headers: maps.Clone(msg.Headers),
			topic:   topic,
			ts:      time.Now(),
		}
		select {
		case g.ch <- bm:
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return io.ErrClosedPipe
		}
	}
	return nil
}

// Consume joins the group set by WithGroup (the empty group is valid) and
// blocks until ctx is done or the bus is closed.
func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	co := newConsumeOptions(opts...)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return io.ErrClosedPipe
	}
	if m.groups[topic] == nil {
		m.groups[topic] = make(map[string]*memoryGroup)
	}
	g, ok := m.groups[topic][co.group]
	if !ok {
		g = &memoryGroup{ch: make(chan *basicMessage, 64)}
		m.groups[topic][co.group] = g
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case msg := <-g.ch:
					_ = handle(ctx, DriverMemory, handler, msg)
				case <-ctx.Done():
					return
				case <-m.done:
					return
				}
			}
		})
	}
	wg.Wait()

	return ctx.Err()
}
