package report

import (
	"sync"
	"sync/atomic"
	"time"
)

// Kind classifies a status event.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindLink    Kind = "link"
)

// Event is a lightweight, in-memory status signal for UI subscribers.
//
// Contract:
//   - Publish MUST be non-blocking.
//   - Slow subscribers may drop events (bounded backpressure).
type Event struct {
	Kind    Kind
	Time    time.Time
	Message string
}

// Bus is a simple in-memory fanout of status events.
// It owns no background goroutines.
type Bus struct {
	mu   sync.RWMutex
	subs map[uint64]chan Event
	seq  atomic.Uint64
}

func NewBus() *Bus {
	return &Bus{subs: map[uint64]chan Event{}}
}

func (b *Bus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	// Snapshot subscribers so Publish doesn't hold locks while sending.
	b.mu.RLock()
	chs := make([]chan Event, 0, len(b.subs))
	for _, ch := range b.subs {
		chs = append(chs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range chs {
		// Non-blocking delivery. If a subscriber unsubscribes concurrently
		// and the channel closes, recover from the send panic.
		func() {
			defer func() { _ = recover() }()
			select {
			case ch <- e:
			default:
			}
		}()
	}
}

func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			// Closing is safe because Publish recovers from send panics.
			close(ch)
		})
	}
	return ch, unsub
}

// Bus implements Reporter by publishing events.
func (b *Bus) OnSuccess(msg string)      { b.Publish(Event{Kind: KindSuccess, Message: msg}) }
func (b *Bus) OnError(msg string)        { b.Publish(Event{Kind: KindError, Message: msg}) }
func (b *Bus) OnLinkPrepared(url string) { b.Publish(Event{Kind: KindLink, Message: url}) }
