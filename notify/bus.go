package notify

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Event names a session state change. Events carry no payload: observers
// re-read the session store when they receive one.
type Event string

const (
	SessionStarted Event = "session-started"
	SessionEnded   Event = "session-ended"
)

type Handler func(Event)

// Bus is the process-wide publish/subscribe channel for session events.
type Bus interface {
	// Publish delivers event synchronously to every current subscriber in
	// registration order.
	Publish(event Event)

	// Subscribe registers handler for event. The returned function removes
	// the registration and may be called more than once.
	Subscribe(event Event, handler Handler) (unsubscribe func())
}

type subscription struct {
	id      uint64
	handler Handler
}

var _ Bus = (*LocalBus)(nil)

// LocalBus is an in-process Bus. A handler that panics is logged and skipped;
// the remaining handlers still run.
type LocalBus struct {
	lock   sync.Mutex
	subs   map[Event][]subscription
	nextID uint64
	logger zerolog.Logger
}

func NewLocalBus() *LocalBus {
	return NewLocalBusWithLogger(log.Logger)
}

func NewLocalBusWithLogger(logger zerolog.Logger) *LocalBus {
	return &LocalBus{
		subs:   make(map[Event][]subscription),
		logger: logger,
	}
}

func (b *LocalBus) Subscribe(event Event, handler Handler) func() {
	if handler == nil {
		return func() {}
	}

	b.lock.Lock()
	b.nextID++
	id := b.nextID
	b.subs[event] = append(b.subs[event], subscription{id: id, handler: handler})
	b.lock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(event, id) })
	}
}

func (b *LocalBus) remove(event Event, id uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	subs := b.subs[event]
	for i, s := range subs {
		if s.id == id {
			b.subs[event] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[event]) == 0 {
		delete(b.subs, event)
	}
}

func (b *LocalBus) Publish(event Event) {
	// Snapshot so handlers may subscribe or unsubscribe while being called.
	b.lock.Lock()
	subs := append([]subscription(nil), b.subs[event]...)
	b.lock.Unlock()

	for _, s := range subs {
		b.deliver(event, s)
	}
}

func (b *LocalBus) deliver(event Event, s subscription) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("event", string(event)).
				Uint64("subscription", s.id).
				Interface("panic", r).
				Msg("session event handler panicked")
		}
	}()
	s.handler(event)
}

// Subscribers returns how many handlers are registered for event.
func (b *LocalBus) Subscribers(event Event) int {
	b.lock.Lock()
	defer b.lock.Unlock()

	return len(b.subs[event])
}
