package syncx

import "sync"

// Broadcaster fans one value out to every subscriber.
type Broadcaster[T any] struct {
	mu          sync.Mutex
	subscribers []chan T
}

func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{}
}

func (b *Broadcaster[T]) Subscribe() chan T {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan T)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

func (b *Broadcaster[T]) Unsubscribe(ch chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	defer close(ch)

	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// EmitQueued delivers asynchronously. Slow subscribers don't block the
// emitter or each other.
func (b *Broadcaster[T]) EmitQueued(msg T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subscribers {
		go func(sub chan T) {
			sub <- msg
		}(sub)
	}
}

// TryEmit delivers to subscribers that are ready, drops the rest.
func (b *Broadcaster[T]) TryEmit(msg T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subscribers {
		select {
		case sub <- msg:
		default:
		}
	}
}

func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subscribers {
		close(sub)
	}
	b.subscribers = nil
}
