package contribution

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/schedule"
	"github.com/roach88/rewards/internal/state"
)

// Host is the part of host.Client the engine needs.
type Host interface {
	LoadURL(req host.Request, cb func(host.Response))
	SetTimer(delay uint64) host.TimerID
	Now() time.Time
	GenerateGUID() string
	SaveLedgerState(blob string, cb host.ResultCallback)
	SaveContributionInfo(info model.ContributionInfo, cb host.ResultCallback)
	LoadRecurringDonations(cb func([]model.RecurringDonation))
}

// Publishers is the attention data auto-contributions draw on.
type Publishers interface {
	EligiblePublishers() []model.PublisherInfo
	ResetDurations()
	SetBalanceReportItem(month time.Month, year int, kind model.ReportType, probi decimal.Decimal)
}

// Sink receives the terminal outcome of every reconcile.
type Sink interface {
	OnReconcileComplete(result model.Result, viewingID string, category model.Category, probi string)
}

// Engine drives reconcile records through their state machine.
type Engine struct {
	host       Host
	ledger     *state.Ledger
	publishers Publishers
	sink       Sink
	ledgerURL  string
	log        *slog.Logger

	retry    RetryPolicy
	interval uint64

	reconcileTimer schedule.Slot
	retryTimers    map[host.TimerID]string

	// attempts counts sends per viewing id. A response from an earlier
	// send of the same record is stale.
	attempts map[string]uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithRetryDelays replaces the retry table. Default: DefaultRetryDelays.
func WithRetryDelays(delays []uint64) Option {
	return func(e *Engine) {
		e.retry = NewRetryPolicy(delays)
	}
}

// WithReconcileInterval sets the auto-contribute period in seconds.
// Default: schedule.ReconcileInterval.
func WithReconcileInterval(seconds uint64) Option {
	return func(e *Engine) {
		if seconds > 0 {
			e.interval = seconds
		}
	}
}

// New creates a contribution engine. ledgerURL is the base URL of the
// rewards ledger server.
func New(h Host, ledger *state.Ledger, publishers Publishers, sink Sink, ledgerURL string, opts ...Option) *Engine {
	e := &Engine{
		host:        h,
		ledger:      ledger,
		publishers:  publishers,
		sink:        sink,
		ledgerURL:   ledgerURL,
		log:         slog.Default(),
		retry:       NewRetryPolicy(DefaultRetryDelays),
		interval:    schedule.ReconcileInterval,
		retryTimers: make(map[host.TimerID]string),
		attempts:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) now() uint64 {
	return uint64(e.host.Now().Unix())
}

// persist saves the ledger blob. Save failures are logged; the in-memory
// ledger stays authoritative and the next save carries the change.
func (e *Engine) persist() {
	blob, err := e.ledger.Encode()
	if err != nil {
		e.log.Error("encode ledger state", "error", err)
		return
	}
	e.host.SaveLedgerState(blob, func(r model.Result) {
		if !r.OK() {
			e.log.Error("save ledger state", "result", r)
		}
	})
}
