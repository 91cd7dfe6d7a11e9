package engine

import (
	"context"
	"fmt"
	"log/slog"
)

// Loop runs posted closures one at a time on the goroutine that calls Run.
//
// Thread-safety model:
//   - Post(): safe from any goroutine
//   - Run(), Drain(): must be called from exactly one goroutine
type Loop struct {
	inbox *inbox
	log   *slog.Logger
}

// NewLoop creates an idle loop.
func NewLoop(log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		inbox: newInbox(),
		log:   log,
	}
}

// Post schedules fn to run on the loop. Returns false once the loop has
// stopped.
func (l *Loop) Post(name string, fn func()) bool {
	return l.inbox.push(name, fn)
}

// Run processes events until ctx is cancelled or Stop is called.
// Events still queued at Stop are processed before Run returns.
//
// A panicking event is logged with its name and sequence number and the
// loop carries on with the next event.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("event loop starting")

	for {
		if event, ok := l.inbox.pop(); ok {
			l.process(event)
			continue
		}

		select {
		case <-ctx.Done():
			l.log.Info("event loop stopping: context cancelled")
			l.inbox.close()
			return ctx.Err()

		case <-l.inbox.ready():
			if l.inbox.drained() {
				l.log.Info("event loop stopping: queue closed")
				return nil
			}
		}
	}
}

// Drain runs queued events, including any they post, until the queue is
// empty, and returns how many ran. It is for embedders without a running
// loop, such as one-shot CLI commands and tests.
func (l *Loop) Drain() int {
	n := 0
	for {
		event, ok := l.inbox.pop()
		if !ok {
			return n
		}
		l.process(event)
		n++
	}
}

// Stop closes the loop to new events. Run returns after the backlog.
func (l *Loop) Stop() {
	l.inbox.close()
}

// Pending returns how many events are queued.
func (l *Loop) Pending() int {
	return l.inbox.size()
}

func (l *Loop) process(event Event) {
	defer func() {
		if r := recover(); r != nil {
			logEventError(l.log, event, fmt.Errorf("panic: %v", r))
		}
	}()
	l.log.Debug("processing event", "name", event.Name, "seq", event.Seq)
	event.Fn()
}
