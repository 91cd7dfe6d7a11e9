package localhost

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/pebblestore"
	"github.com/roach88/rewards/internal/store"
)

// BlobStore holds the engine's named state blobs. Both *store.Store and
// *pebblestore.DB implement it.
type BlobStore interface {
	LoadBlob(ctx context.Context, name string) (string, error)
	SaveBlob(ctx context.Context, name, data string) error
}

// Poster schedules fn on the engine's event loop. *engine.Loop implements
// it.
type Poster interface {
	Post(name string, fn func()) bool
}

// Host is a host.Client backed by local storage and net/http.
type Host struct {
	blobs   BlobStore
	records *store.Store
	loop    Poster
	client  *http.Client
	notify  host.Notifier
	log     *slog.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Storage operations run one at a time on a single goroutine, in
	// call order.
	storage chan func()

	mu        sync.Mutex
	closed    bool
	nextTimer host.TimerID
	timers    map[host.TimerID]*time.Timer
	onTimer   func(host.TimerID)
}

var _ host.Client = (*Host)(nil)

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		h.log = l
	}
}

// WithHTTPClient replaces the HTTP client. Default: a client with a
// 30 second timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Host) {
		h.client = c
	}
}

// WithNotifier sets who receives engine notifications. Default: a
// LogNotifier on the host's logger.
func WithNotifier(n host.Notifier) Option {
	return func(h *Host) {
		h.notify = n
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(h *Host) {
		h.now = now
	}
}

// New creates a host. blobs may be the records store itself.
func New(blobs BlobStore, records *store.Store, loop Poster, opts ...Option) *Host {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Host{
		blobs:   blobs,
		records: records,
		loop:    loop,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     slog.Default(),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		timers:  make(map[host.TimerID]*time.Timer),
		storage: make(chan func(), 256),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.notify == nil {
		h.notify = LogNotifier{Log: h.log}
	}
	h.wg.Add(1)
	go h.storageWorker()
	return h
}

func (h *Host) storageWorker() {
	defer h.wg.Done()
	for job := range h.storage {
		job()
	}
}

// Close stops every timer, cancels in-flight requests and waits for the
// background work to finish. Storage writes queued before Close still
// land; their callbacks, like those of cancelled requests, are dropped.
func (h *Host) Close() {
	h.cancel()
	h.mu.Lock()
	for id, t := range h.timers {
		t.Stop()
		delete(h.timers, id)
	}
	if !h.closed {
		h.closed = true
		close(h.storage)
	}
	h.mu.Unlock()
	h.wg.Wait()
}

// async runs network work off the loop and posts its continuation back.
func (h *Host) async(name string, work func(ctx context.Context) func()) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		cont := work(h.ctx)
		if cont == nil || h.ctx.Err() != nil {
			return
		}
		if !h.loop.Post(name, cont) {
			h.log.Debug("loop closed, callback dropped", "event", name)
		}
	}()
}

// read queues a storage read. Reads see every write queued before them.
func (h *Host) read(name string, work func(ctx context.Context) func()) {
	h.enqueue(h.ctx, name, work)
}

// write queues a storage write. Its context ignores Close so that state
// handed to the host before shutdown is not lost.
func (h *Host) write(name string, work func(ctx context.Context) func()) {
	h.enqueue(context.WithoutCancel(h.ctx), name, work)
}

func (h *Host) enqueue(ctx context.Context, name string, work func(ctx context.Context) func()) {
	job := func() {
		cont := work(ctx)
		if cont == nil || h.ctx.Err() != nil {
			return
		}
		if !h.loop.Post(name, cont) {
			h.log.Debug("loop closed, callback dropped", "event", name)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		h.log.Warn("host closed, storage call dropped", "event", name)
		return
	}
	h.storage <- job
}

// resultOf maps a storage error onto the host result taxonomy.
func resultOf(err error) model.Result {
	switch {
	case err == nil:
		return model.ResultOK
	case errors.Is(err, store.ErrNotFound), errors.Is(err, pebblestore.ErrNotFound):
		return model.ResultNotFound
	default:
		return model.ResultLedgerError
	}
}
