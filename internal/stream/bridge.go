// Package stream bridges a workflow run to a long-lived event consumer such
// as a server-sent-events response. The run pushes step messages onto a
// bounded queue and ends with exactly one terminal result or error message;
// the consumer blocks on the queue and forwards each message in order.
package stream

import (
	"context"
	"errors"
	"sync"
)

// Event names.
const (
	EventStep   = "step"
	EventResult = "result"
	EventError  = "error"
)

var (
	// ErrClosed is returned when pushing after the terminal message.
	ErrClosed = errors.New("stream closed")
	// ErrConsumerGone is returned when the consumer stopped forwarding.
	ErrConsumerGone = errors.New("stream consumer gone")
)

// Message is one queued event.
type Message struct {
	Event string
	Data  any
}

// Terminal reports whether m ends the stream.
func (m Message) Terminal() bool {
	return m.Event == EventResult || m.Event == EventError
}

// Bridge is a bounded FIFO queue between one run and one consumer.
// Push may be called from any goroutine; messages are delivered in the
// order their Push calls acquired the queue.
type Bridge struct {
	queue chan Message
	gone  chan struct{}

	mu     sync.Mutex
	closed bool
	leave  sync.Once
}

// NewBridge returns a bridge whose queue holds up to buffer messages.
func NewBridge(buffer int) *Bridge {
	return &Bridge{
		queue: make(chan Message, max(buffer, 1)),
		gone:  make(chan struct{}),
	}
}

// Push enqueues a step message. It blocks while the queue is full and gives
// up only when the consumer has gone away.
func (b *Bridge) Push(data any) error {
	return b.push(Message{Event: EventStep, Data: data})
}

// Finish enqueues the terminal result message and closes the queue.
func (b *Bridge) Finish(data any) error {
	return b.push(Message{Event: EventResult, Data: data})
}

// Fail enqueues a terminal error message and closes the queue.
func (b *Bridge) Fail(err error) error {
	return b.push(Message{Event: EventError, Data: map[string]string{"error": err.Error()}})
}

func (b *Bridge) push(m Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	select {
	case <-b.gone:
		return ErrConsumerGone
	default:
	}

	select {
	case b.queue <- m:
	case <-b.gone:
		return ErrConsumerGone
	}

	if m.Terminal() {
		b.closed = true
		close(b.queue)
	}
	return nil
}

// Forward delivers queued messages to sink until the terminal message has
// been forwarded, then returns nil. If ctx ends or sink fails, Forward stops,
// releases any blocked producer, and returns that error.
func (b *Bridge) Forward(ctx context.Context, sink func(Message) error) error {
	defer b.leave.Do(func() { close(b.gone) })

	for {
		select {
		case m, ok := <-b.queue:
			if !ok {
				return nil
			}
			if err := sink(m); err != nil {
				return err
			}
			if m.Terminal() {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
