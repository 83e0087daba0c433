package foreground

import "sync"

// Visibility is the foreground state of the application.
type Visibility int

const (
	Visible Visibility = iota
	Hidden
)

func (v Visibility) String() string {
	if v == Hidden {
		return "hidden"
	}
	return "visible"
}

// Source delivers visibility transitions.
type Source interface {
	// Subscribe returns a channel of transitions and a func that ends the
	// subscription. The func is safe to call more than once.
	Subscribe() (<-chan Visibility, func())

	// Visible reports the current state.
	Visible() bool
}

// Broadcaster is an in-process Source. The zero value starts visible with no
// subscribers.
type Broadcaster struct {
	mu     sync.Mutex
	hidden bool
	subs   map[int]chan Visibility
	nextID int
}

var _ Source = (*Broadcaster)(nil)

// Subscribe registers a listener. Each listener channel holds at most the
// latest undelivered transition.
func (b *Broadcaster) Subscribe() (<-chan Visibility, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[int]chan Visibility)
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Visibility, 1)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish records v and, when it differs from the current state, hands it to
// every listener. It never blocks.
func (b *Broadcaster) Publish(v Visibility) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if (v == Hidden) == b.hidden {
		return
	}
	b.hidden = v == Hidden

	for _, ch := range b.subs {
		// Replace a stale undelivered value
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Visible reports whether the application is in the foreground.
func (b *Broadcaster) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.hidden
}

// Listeners returns the number of active subscriptions.
func (b *Broadcaster) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
