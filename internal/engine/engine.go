package engine

import (
	"log/slog"

	"github.com/roach88/rewards/internal/contribution"
	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/media"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/publisher"
	"github.com/roach88/rewards/internal/schedule"
	"github.com/roach88/rewards/internal/state"
	"github.com/roach88/rewards/internal/wallet"
)

// Lifecycle is the orchestrator's initialization state.
type Lifecycle string

const (
	Uninitialized Lifecycle = "UNINITIALIZED"
	Initializing  Lifecycle = "INITIALIZING"
	Initialized   Lifecycle = "INITIALIZED"
	InitFailed    Lifecycle = "INIT_FAILED"
)

// Endpoints are the rewards server base URLs.
type Endpoints struct {
	Ledger    string
	Balance   string
	Publisher string
}

// ProductionEndpoints are the default server URLs.
var ProductionEndpoints = Endpoints{
	Ledger:    "https://ledger.mercury.basicattentiontoken.org",
	Balance:   "https://balance.mercury.basicattentiontoken.org",
	Publisher: "https://publishers.basicattentiontoken.org",
}

// PublisherListPath is the verified-publisher list endpoint on the
// publisher server.
const PublisherListPath = "/api/v1/public/channels"

// Intervals are the refresh periods in seconds. Zero fields keep their
// defaults.
type Intervals struct {
	PublisherList uint64
	Grant         uint64
	Reconcile     uint64
}

// Engine is the ledger orchestrator.
//
// Engine methods must be called from one goroutine at a time, normally the
// one running Loop().Run. Host callbacks must re-enter on that goroutine;
// see the localhost package for a host that posts them to the loop.
type Engine struct {
	host host.Client
	loop *Loop
	log  *slog.Logger

	urls         Endpoints
	intervals    Intervals
	retryDelays  []uint64
	publisherWin schedule.Window
	grantWin     schedule.Window

	ledger  *state.Ledger
	tracker *publisher.Tracker
	wallet  *wallet.Client
	contrib *contribution.Engine
	media   *media.Attributor

	lifecycle Lifecycle

	visits     map[uint32]model.VisitData
	shownTab   uint32
	tabShown   bool
	lastActive uint64
	timing     bool

	publisherListTimer schedule.Slot
	grantTimer         schedule.Slot
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger; subsystems log through it too.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithEndpoints sets the server URLs. Default: ProductionEndpoints.
func WithEndpoints(urls Endpoints) Option {
	return func(e *Engine) {
		e.urls = urls
	}
}

// WithIntervals overrides refresh periods.
func WithIntervals(iv Intervals) Option {
	return func(e *Engine) {
		if iv.PublisherList > 0 {
			e.intervals.PublisherList = iv.PublisherList
		}
		if iv.Grant > 0 {
			e.intervals.Grant = iv.Grant
		}
		if iv.Reconcile > 0 {
			e.intervals.Reconcile = iv.Reconcile
		}
	}
}

// WithRetryDelays replaces the reconcile retry table.
func WithRetryDelays(delays []uint64) Option {
	return func(e *Engine) {
		e.retryDelays = delays
	}
}

// WithLoop makes the engine share an existing loop.
func WithLoop(l *Loop) Option {
	return func(e *Engine) {
		e.loop = l
	}
}

// New creates an uninitialized engine talking to h.
func New(h host.Client, opts ...Option) *Engine {
	e := &Engine{
		host: h,
		log:  slog.Default(),
		urls: ProductionEndpoints,
		intervals: Intervals{
			PublisherList: schedule.PublisherListInterval,
			Grant:         schedule.GrantInterval,
			Reconcile:     schedule.ReconcileInterval,
		},
		retryDelays:  contribution.DefaultRetryDelays,
		publisherWin: schedule.PublisherListRetry,
		grantWin:     schedule.GrantRetry,
		ledger:       state.New(),
		lifecycle:    Uninitialized,
		visits:       make(map[uint32]model.VisitData),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.loop == nil {
		e.loop = NewLoop(e.log)
	}

	e.tracker = publisher.New(h, e.ledger, publisher.WithLogger(e.log.With("component", "publisher")))
	e.wallet = wallet.New(h, e.ledger, walletSink{e}, wallet.Endpoints{
		Ledger:  e.urls.Ledger,
		Balance: e.urls.Balance,
	}, wallet.WithLogger(e.log.With("component", "wallet")))
	e.contrib = contribution.New(h, e.ledger, e.tracker, contributionSink{e}, e.urls.Ledger,
		contribution.WithLogger(e.log.With("component", "contribution")),
		contribution.WithRetryDelays(e.retryDelays),
		contribution.WithReconcileInterval(e.intervals.Reconcile))
	e.media = media.New(h, e.tracker, media.WithLogger(e.log.With("component", "media")))
	return e
}

// Loop returns the event loop the engine runs on.
func (e *Engine) Loop() *Loop {
	return e.loop
}

// Lifecycle returns the initialization state.
func (e *Engine) Lifecycle() Lifecycle {
	return e.lifecycle
}

// Ledger returns the live ledger state. Callers must not mutate it.
func (e *Engine) Ledger() *state.Ledger {
	return e.ledger
}

// Tracker returns the publisher tracker.
func (e *Engine) Tracker() *publisher.Tracker {
	return e.tracker
}

func (e *Engine) now() uint64 {
	return uint64(e.host.Now().Unix())
}

// saveLedger persists the ledger blob. The in-memory ledger stays
// authoritative when the save fails; the next save carries the change.
func (e *Engine) saveLedger() {
	blob, err := e.ledger.Encode()
	if err != nil {
		e.log.Error("encode ledger state", "error", err)
		return
	}
	e.host.SaveLedgerState(blob, func(result model.Result) {
		if !result.OK() {
			e.log.Error("save ledger state failed", "result", result)
		}
	})
}
