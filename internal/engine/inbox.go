package engine

import "sync"

// Event is one unit of work for the loop: a host callback, a timer firing
// or an API call.
type Event struct {
	// Seq orders events in logs. It is assigned when the event is queued
	// and always follows queue order, unlike host wall time which may move
	// backwards.
	Seq uint64
	// Name labels the event in logs.
	Name string
	// Fn is the work itself.
	Fn func()
}

// inbox holds events posted from host goroutines until the loop takes
// them. It never blocks a poster: network and timer callbacks complete on
// goroutines that must not wait on a busy engine.
type inbox struct {
	mu      sync.Mutex
	pending []Event
	head    int
	seq     uint64
	shut    bool
	wake    chan struct{}
}

func newInbox() *inbox {
	return &inbox{wake: make(chan struct{}, 1)}
}

// push stamps and queues an event. It reports false once the inbox is shut.
func (b *inbox) push(name string, fn func()) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shut {
		return false
	}
	b.seq++
	b.pending = append(b.pending, Event{Seq: b.seq, Name: name, Fn: fn})
	select {
	case b.wake <- struct{}{}:
	default:
	}
	return true
}

// pop takes the oldest queued event without waiting.
func (b *inbox) pop() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.head == len(b.pending) {
		return Event{}, false
	}
	ev := b.pending[b.head]
	b.pending[b.head] = Event{}
	b.head++
	if b.head == len(b.pending) {
		// Everything taken: reuse the backing array from the start.
		b.pending = b.pending[:0]
		b.head = 0
	}
	return ev, true
}

// ready fires after a push, and stays readable once the inbox is shut.
func (b *inbox) ready() <-chan struct{} {
	return b.wake
}

func (b *inbox) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending) - b.head
}

// drained reports whether the inbox is shut with nothing left to take.
func (b *inbox) drained() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shut && b.head == len(b.pending)
}

// close refuses further pushes. Queued events can still be taken.
func (b *inbox) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shut {
		return
	}
	b.shut = true
	close(b.wake)
}
