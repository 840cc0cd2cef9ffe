package recorder

import (
	"sync"

	"github.com/jrsteele09/go-docs-auth/notify"
)

var _ notify.Bus = (*Recorder)(nil)

// Recorder is a notify.Bus for tests. It forwards to a LocalBus and keeps
// every published event.
type Recorder struct {
	*notify.LocalBus
	lock   sync.Mutex
	events []notify.Event
}

func New() *Recorder {
	return &Recorder{LocalBus: notify.NewLocalBus()}
}

func (r *Recorder) Publish(event notify.Event) {
	r.lock.Lock()
	r.events = append(r.events, event)
	r.lock.Unlock()

	r.LocalBus.Publish(event)
}

func (r *Recorder) Events() []notify.Event {
	r.lock.Lock()
	defer r.lock.Unlock()

	return append([]notify.Event(nil), r.events...)
}

// Count returns how many times event was published.
func (r *Recorder) Count(event notify.Event) int {
	r.lock.Lock()
	defer r.lock.Unlock()

	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}
