package broker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by operations on a closed broker.
var ErrClosed = errors.New("broker is closed")

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls this far behind blocks publishers until it drains or its
// context ends.
const subscriberBuffer = 64

type subscriber struct {
	ctx context.Context
	ch  chan Message
}

// InMemoryBroker fans messages out to every subscriber of a topic.
// groupID is ignored: each subscriber sees every message.
type InMemoryBroker struct {
	mu      sync.RWMutex
	subs    map[string][]*subscriber
	offsets map[string]int64
	closed  bool
}

// NewInMemoryBroker creates a new InMemoryBroker instance.
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		subs:    make(map[string][]*subscriber),
		offsets: make(map[string]int64),
	}
}

// Publish delivers value to all current subscribers of topic.
func (b *InMemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	offset, err := b.nextOffset(topic)
	if err != nil {
		return err
	}
	msg := Message{
		Topic:     topic,
		Key:       key,
		Value:     append([]byte(nil), value...),
		Offset:    offset,
		Timestamp: time.Now().UnixMilli(),
	}

	// Holding the read lock keeps Close from closing a channel mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for _, s := range b.subs[topic] {
		select {
		case s.ch <- msg:
		case <-s.ctx.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *InMemoryBroker) nextOffset(topic string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrClosed
	}
	offset := b.offsets[topic]
	b.offsets[topic] = offset + 1
	return offset, nil
}

// Subscribe registers a subscriber for topic. The channel is closed when
// the broker closes.
func (b *InMemoryBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	s := &subscriber{ctx: ctx, ch: make(chan Message, subscriberBuffer)}
	b.subs[topic] = append(b.subs[topic], s)
	return s.ch, nil
}

// Close closes every subscriber channel. Close is idempotent.
func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subs {
		for _, s := range subs {
			close(s.ch)
		}
	}
	b.subs = nil
	return nil
}
