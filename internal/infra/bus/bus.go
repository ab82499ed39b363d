// Package bus implements the engine's broadcast channels with
// replay-latest-one semantics: a subscriber attaching after a publish
// still observes the most recent value, and only one slot is retained per
// subscriber, so a later value overwrites an unconsumed earlier one.
package bus

import (
	"sync"

	"ulink/internal/domain/entity"
)

// Topic is a typed broadcast channel retaining the latest published value.
type Topic[T any] struct {
	mu     sync.Mutex
	latest *T
	subs   map[int]chan T
	nextID int
}

// NewTopic creates an empty topic.
func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{subs: make(map[int]chan T)}
}

// Publish stores v as the latest value and delivers it to every
// subscriber. A subscriber that has not consumed the previous value loses
// it; the slot holds one value, not a queue.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.latest = &v
	for _, ch := range t.subs {
		// Drop the stale value so the send below cannot block.
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Subscribe registers a new subscriber. If a value was already published,
// it is replayed immediately. The returned cancel func removes the
// subscription and closes the channel; it is safe to call more than once.
func (t *Topic[T]) Subscribe() (<-chan T, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan T, 1)
	if t.latest != nil {
		ch <- *t.latest
	}
	id := t.nextID
	t.nextID++
	t.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subs, id)
			close(ch)
		})
	}

	return ch, cancel
}

// Latest returns the most recently published value, if any.
func (t *Topic[T]) Latest() (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.latest == nil {
		var zero T

		return zero, false
	}

	return *t.latest, true
}

// Bus groups the engine's broadcast topics.
type Bus struct {
	Dynamic   *Topic[entity.ResolvedLinkData] // Resolved dynamic links.
	Unified   *Topic[entity.ResolvedLinkData] // Resolved unified links.
	Reinstall *Topic[entity.InstallationInfo] // One-shot reinstall detection.
	Logs      *Topic[entity.LogEntry]         // SDK log records in debug mode.
}

// New creates a bus with all topics empty.
func New() *Bus {
	return &Bus{
		Dynamic:   NewTopic[entity.ResolvedLinkData](),
		Unified:   NewTopic[entity.ResolvedLinkData](),
		Reinstall: NewTopic[entity.InstallationInfo](),
		Logs:      NewTopic[entity.LogEntry](),
	}
}
