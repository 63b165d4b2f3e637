package eventbus

import "sync"

// Event is anything published on the bus. Events that implement Kinder can
// be routed to kind-filtered subscribers.
type Event interface{}

// Kinder is implemented by events that declare a routing kind, for example
// "plan_generated" or "withdrawal".
type Kinder interface {
	Kind() string
}

// Bus fans events out to subscribers over buffered channels. Delivery is
// non-blocking: a subscriber that falls behind misses events rather than
// stalling the publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	closed bool
}

type subscription struct {
	ch    chan Event
	kinds map[string]struct{}
}

func (s *subscription) wants(e Event) bool {
	if len(s.kinds) == 0 {
		return true
	}
	k, ok := e.(Kinder)
	if !ok {
		return false
	}
	_, want := s.kinds[k.Kind()]
	return want
}

// New creates an empty Bus.
func New() *Bus { return &Bus{} }

// Publish delivers the event to every subscriber whose filter matches.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if !sub.wants(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber. With no kinds it receives every event;
// with kinds it receives only events whose Kind matches one of them.
func (b *Bus) Subscribe(kinds ...string) <-chan Event {
	sub := &subscription{ch: make(chan Event, 8)}
	if len(kinds) > 0 {
		sub.kinds = make(map[string]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}
	b.mu.Lock()
	if b.closed {
		close(sub.ch)
	} else {
		b.subs = append(b.subs, sub)
	}
	b.mu.Unlock()
	return sub.ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.ch == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(sub.ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels and drops the subscriber list.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
