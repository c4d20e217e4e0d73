// Package notify provides an in-process driven.ChangeNotifier that fans
// change notifications out to subscribers.
package notify

import (
	"sync"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driven"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/logger"
)

// Ensure Broadcaster implements the interface.
var _ driven.ChangeNotifier = (*Broadcaster)(nil)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 16

// Broadcaster delivers each notified resource key to every subscriber.
// Notify never blocks: a subscriber whose buffer is full misses the event.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[int]chan string
	next        int
	buffer      int
	dropped     int
}

// NewBroadcaster creates a broadcaster. A non-positive buffer uses DefaultBuffer.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		subscribers: make(map[int]chan string),
		buffer:      buffer,
	}
}

// Subscribe registers a subscriber. The returned cancel func closes the
// channel and is safe to call more than once.
func (b *Broadcaster) Subscribe() (<-chan string, func()) {
	ch := make(chan string, b.buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subscribers[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Notify sends resource to every subscriber without waiting.
func (b *Broadcaster) Notify(resource string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- resource:
		default:
			b.dropped++
			logger.Debug("notify: subscriber full, dropped %s", resource)
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (b *Broadcaster) Dropped() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}
