package authority

import "sync"

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 32

// EventBus fans values out to any number of subscribers. Publish never
// blocks: a subscriber whose buffer is full loses its oldest value.
type EventBus[T any] struct {
	mu     sync.Mutex
	subs   map[int]chan T
	next   int
	buffer int
	closed bool
}

// NewEventBus creates a bus whose subscribers buffer up to buffer values.
func NewEventBus[T any](buffer int) *EventBus[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &EventBus[T]{subs: make(map[int]chan T), buffer: buffer}
}

// Subscribe registers a listener. Calling cancel more than once is safe.
func (b *EventBus[T]) Subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan T, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers v to every subscriber.
func (b *EventBus[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Len is the number of live subscribers.
func (b *EventBus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription.
func (b *EventBus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
