package auth

import (
	"sync"

	"github.com/jrsteele09/go-docs-auth/notify"
	"github.com/jrsteele09/go-docs-auth/sessions"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Snapshot is what an observer last read from the session store.
type Snapshot struct {
	State State
	User  sessions.UserProfile
	Token string
}

// Observer tracks the session state for one consumer. It reads the store when
// created and again on every session event; events are only a cue to re-read,
// so a missed event is corrected by the next one.
type Observer struct {
	client       *Client
	onChange     func(Snapshot)
	unsubscribes []func()

	lock     sync.Mutex
	snapshot Snapshot
	closed   bool
}

// NewObserver reads the current session and subscribes to session events.
// onChange, if set, runs after each event-driven re-read on the publisher's
// goroutine.
func NewObserver(client *Client, bus notify.Bus, onChange func(Snapshot)) *Observer {
	o := &Observer{client: client, onChange: onChange}

	// Subscribe before the first read so a change in between is not lost.
	o.unsubscribes = []func(){
		bus.Subscribe(notify.SessionStarted, o.handle),
		bus.Subscribe(notify.SessionEnded, o.handle),
	}

	snapshot := o.read()
	o.lock.Lock()
	o.snapshot = snapshot
	o.lock.Unlock()
	return o
}

func (o *Observer) read() Snapshot {
	token := o.client.GetToken()
	if token == "" {
		return Snapshot{State: Unauthenticated}
	}
	return Snapshot{State: Authenticated, User: o.client.GetUser(), Token: token}
}

func (o *Observer) handle(notify.Event) {
	snapshot := o.read()

	o.lock.Lock()
	if o.closed {
		o.lock.Unlock()
		return
	}
	o.snapshot = snapshot
	o.lock.Unlock()

	if o.onChange != nil {
		o.onChange(snapshot)
	}
}

func (o *Observer) Snapshot() Snapshot {
	o.lock.Lock()
	defer o.lock.Unlock()

	return o.snapshot
}

// Close unsubscribes from session events. Later events are ignored.
func (o *Observer) Close() {
	o.lock.Lock()
	if o.closed {
		o.lock.Unlock()
		return
	}
	o.closed = true
	o.lock.Unlock()

	for _, unsubscribe := range o.unsubscribes {
		unsubscribe()
	}
}
