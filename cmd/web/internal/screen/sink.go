package screen

import (
	"errors"
	"sync"
)

const (
	// DefaultQueueSize is the number of undelivered messages a viewer may
	// lag behind before it is treated as dead.
	DefaultQueueSize = 16

	minQueueSize = 2
)

var (
	ErrQueueFull  = errors.New("viewer queue full")
	ErrSinkClosed = errors.New("viewer sink closed")
)

// Sink is the write end of one viewer connection. Send must not block; a
// returned error evicts the channel. Close is called exactly once, by the
// Registry, when the channel is torn down.
type Sink interface {
	Send(msg Message) error
	Close()
}

// QueueSink buffers messages for a transport goroutine to drain. A viewer
// that falls a full queue behind is reported as failed rather than having
// messages silently dropped.
type QueueSink struct {
	queue chan Message
	done  chan struct{}
	once  sync.Once
}

// NewQueueSink creates a sink with room for size pending messages.
func NewQueueSink(size int) *QueueSink {
	if size < minQueueSize {
		size = minQueueSize
	}
	return &QueueSink{
		queue: make(chan Message, size),
		done:  make(chan struct{}),
	}
}

// Send enqueues msg without blocking.
func (s *QueueSink) Send(msg Message) error {
	select {
	case <-s.done:
		return ErrSinkClosed
	default:
	}

	select {
	case s.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close marks the sink as finished. The queue itself is never closed so a
// late Send cannot panic.
func (s *QueueSink) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Messages returns the channel the transport drains.
func (s *QueueSink) Messages() <-chan Message {
	return s.queue
}

// Done is closed once the Registry has torn the channel down.
func (s *QueueSink) Done() <-chan struct{} {
	return s.done
}
