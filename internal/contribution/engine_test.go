package contribution

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/schedule"
	"github.com/roach88/rewards/internal/state"
	"github.com/roach88/rewards/internal/testutil"
)

const (
	testNow    = 1700000000
	testLedger = "https://ledger.test"
)

type reportItem struct {
	Month time.Month
	Year  int
	Kind  model.ReportType
	Probi decimal.Decimal
}

type fakePublishers struct {
	eligible []model.PublisherInfo
	resets   int
	items    []reportItem
}

func (p *fakePublishers) EligiblePublishers() []model.PublisherInfo { return p.eligible }

func (p *fakePublishers) ResetDurations() { p.resets++ }

func (p *fakePublishers) SetBalanceReportItem(month time.Month, year int, kind model.ReportType, probi decimal.Decimal) {
	p.items = append(p.items, reportItem{month, year, kind, probi})
}

type fixture struct {
	host   *testutil.FakeHost
	ledger *state.Ledger
	pubs   *fakePublishers
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := testutil.NewFakeHost(testNow)
	ledger := state.New()
	ledger.SetPaymentID("pay-1")
	pubs := &fakePublishers{}
	return &fixture{
		host:   h,
		ledger: ledger,
		pubs:   pubs,
		engine: New(h, ledger, pubs, h, testLedger),
	}
}

func (f *fixture) persisted(t *testing.T) *state.Ledger {
	t.Helper()
	blob, ok := f.host.Blobs[host.BlobLedgerState]
	require.True(t, ok, "ledger state was never saved")
	l, err := state.Decode(blob)
	require.NoError(t, err)
	return l
}

func direct(publisher string, amount int64) []model.Direction {
	return []model.Direction{{PublisherID: publisher, Weight: decimal.NewFromInt(amount), Currency: "BAT"}}
}

func TestStartReconcile_Success(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.engine.StartReconcile("view-1", model.CategoryDirectDonation, nil, direct("example.com", 5)))

	pending := f.host.Pending("/v2/reconcile/pay-1")
	require.Len(t, pending, 1)
	assert.Equal(t, host.MethodPost, pending[0].Request.Method)

	var body reconcileRequest
	require.NoError(t, json.Unmarshal([]byte(pending[0].Request.Body), &body))
	assert.Equal(t, "view-1", body.ViewingID)
	assert.Equal(t, model.CategoryDirectDonation, body.Category)
	assert.True(t, body.Amount.Equal(decimal.NewFromInt(5)))
	require.Len(t, body.Directions, 1)
	assert.Equal(t, "example.com", body.Directions[0].PublisherKey)

	// Persisted before the request went out.
	rec, ok := f.persisted(t).Reconcile("view-1")
	require.True(t, ok)
	assert.Equal(t, state.StepRequestSent, rec.Step)

	require.NoError(t, f.host.Respond("/v2/reconcile/", host.Response{Status: 200, Body: `{"probi":"5000000000000000000"}`}))

	assert.False(t, f.ledger.ReconcileExists("view-1"))
	assert.False(t, f.persisted(t).ReconcileExists("view-1"))

	require.Len(t, f.host.Contributions, 1)
	c := f.host.Contributions[0]
	assert.Equal(t, "example.com", c.PublisherID)
	assert.Equal(t, model.CategoryDirectDonation, c.Category)
	assert.True(t, c.Probi.Equal(decimal.RequireFromString("5000000000000000000")))
	assert.Equal(t, time.November, c.Month)
	assert.Equal(t, 2023, c.Year)
	assert.Equal(t, uint64(testNow), c.Date)

	require.Len(t, f.pubs.items, 1)
	assert.Equal(t, model.ReportTip, f.pubs.items[0].Kind)
	assert.Zero(t, f.pubs.resets, "only auto-contribute resets attention")

	events := f.host.EventsNamed(testutil.EventReconcileComplete)
	require.Len(t, events, 1)
	assert.Equal(t, model.ResultOK, events[0].Result)
	assert.Equal(t, "view-1", events[0].ViewingID)
	assert.Equal(t, "5000000000000000000", events[0].Probi)
}

func TestStartReconcile_SplitsProbiByWeight(t *testing.T) {
	f := newFixture(t)
	dirs := append(direct("a.com", 3), direct("b.com", 1)...)

	require.NoError(t, f.engine.StartReconcile("view-1", model.CategoryRecurringDonation, nil, dirs))
	require.NoError(t, f.host.Respond("/v2/reconcile/", host.Response{Status: 200, Body: `{"probi":"400"}`}))

	require.Len(t, f.host.Contributions, 2)
	assert.True(t, f.host.Contributions[0].Probi.Equal(decimal.NewFromInt(300)))
	assert.True(t, f.host.Contributions[1].Probi.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, model.ReportRecurringDonation, f.pubs.items[0].Kind)
}

func TestStartReconcile_DuplicateViewingID(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.StartReconcile("view-1", model.CategoryDirectDonation, nil, direct("a.com", 1)))

	err := f.engine.StartReconcile("view-1", model.CategoryDirectDonation, nil, direct("b.com", 1))
	require.Error(t, err)
	assert.True(t, IsAlreadyInProgress(err))
	assert.Equal(t, model.ResultAlreadyInProgress, ResultFor(err))

	rec, _ := f.ledger.Reconcile("view-1")
	assert.Equal(t, "a.com", rec.Directions[0].PublisherID, "rejected start must not change state")
	assert.Len(t, f.host.Requests, 1)
}

func TestStartReconcile_SingleAutoContribute(t *testing.T) {
	f := newFixture(t)
	pubs := []model.PublisherInfo{{ID: "a.com", Duration: 30}}

	require.NoError(t, f.engine.StartReconcile("view-1", model.CategoryAutoContribute, pubs, nil))
	err := f.engine.StartReconcile("view-2", model.CategoryAutoContribute, pubs, nil)
	assert.True(t, IsAlreadyInProgress(err))
	assert.False(t, f.ledger.ReconcileExists("view-2"))

	// Other categories may run alongside.
	assert.NoError(t, f.engine.StartReconcile("view-3", model.CategoryDirectDonation, nil, direct("a.com", 1)))
}

func TestStartReconcile_ZeroWeight(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name       string
		publishers []model.PublisherInfo
		directions []model.Direction
	}{
		{"nothing", nil, nil},
		{"zero direction", nil, direct("a.com", 0)},
		{"negative direction", nil, direct("a.com", -3)},
		{"no attention", []model.PublisherInfo{{ID: "a.com"}}, nil},
		{"only excluded", []model.PublisherInfo{{ID: "a.com", Duration: 40, Excluded: model.ExcludeExcluded}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.engine.StartReconcile("view-"+tt.name, model.CategoryAutoContribute, tt.publishers, tt.directions)
			require.Error(t, err)
			assert.True(t, IsZeroWeight(err))
			assert.Equal(t, model.ResultZeroWeight, ResultFor(err))
		})
	}
	assert.Empty(t, f.ledger.Reconciles())
	assert.Empty(t, f.host.Requests)
}

func TestStartReconcile_InvalidRequest(t *testing.T) {
	f := newFixture(t)

	err := f.engine.StartReconcile("", model.CategoryDirectDonation, nil, direct("a.com", 1))
	assert.Equal(t, model.ResultLedgerError, ResultFor(err))

	err = f.engine.StartReconcile("view-1", model.Category("BOGUS"), nil, direct("a.com", 1))
	assert.Equal(t, model.ResultLedgerError, ResultFor(err))
}

func TestReconcile_RetryKeepsViewingID(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.StartReconcile("view-1", model.CategoryDirectDonation, nil, direct("a.com", 1)))

	require.NoError(t, f.host.Respond("/v2/reconcile/", host.Response{Status: 503}))

	rec, ok := f.ledger.Reconcile("view-1")
	require.True(t, ok)
	assert.Equal(t, state.StepFailed, rec.Step)
	assert.Equal(t, 1, rec.RetryLevel)
	assert.Equal(t, state.StepRequestSent, rec.RetryStep)

	saved, ok := f.persisted(t).Reconcile("view-1")
	require.True(t, ok)
	assert.Equal(t, 1, saved.RetryLevel)

	timer, ok := f.host.LastTimer()
	require.True(t, ok)
	assert.Equal(t, uint64(60), timer.Delay)
	assert.Empty(t, f.host.EventsNamed(testutil.EventReconcileComplete), "a retriable failure is not surfaced")

	assert.True(t, f.engine.OnTimer(timer.ID))
	require.Len(t, f.host.Pending("/v2/reconcile/"), 1)
	rec, _ = f.ledger.Reconcile("view-1")
	assert.Equal(t, state.StepRequestSent, rec.Step)

	require.NoError(t, f.host.Respond("/v2/reconcile/", host.Response{Status: 0}))
	rec, _ = f.ledger.Reconcile("view-1")
	assert.Equal(t, "view-1", rec.ViewingID)
	assert.Equal(t, 2, rec.RetryLevel)
	timer, _ = f.host.LastTimer()
	assert.Equal(t, uint64(300), timer.Delay)

	assert.True(t, f.engine.OnTimer(timer.ID))
	require.NoError(t, f.host.Respond("/v2/reconcile/", host.Response{Status: 200, Body: `{"probi":"1"}`}))
	assert.False(t, f.ledger.ReconcileExists("view-1"))
	assert.Zero(t, f.engine.PendingRetries())
}

func TestReconcile_RetriesExhausted(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.StartReconcile("view-1", model.CategoryDirectDonation, nil, direct("a.com", 1)))

	var delays []uint64
	for range DefaultRetryDelays {
		require.NoError(t, f.host.Respond("/v2/reconcile/", host.Response{Status: 502}))
		timer, _ := f.host.LastTimer()
		delays = append(delays, timer.Delay)
		require.True(t, f.engine.OnTimer(timer.ID))
	}
	assert.Equal(t, DefaultRetryDelays, delays)

	timers := len(f.host.Timers)
	require.NoError(t, f.host.Respond("/v2/reconcile/", host.Response{Status: 502}))

	assert.Len(t, f.host.Timers, timers, "no retry after the table runs out")
	assert.False(t, f.ledger.ReconcileExists("view-1"))
	events := f.host.EventsNamed(testutil.EventReconcileComplete)
	require.Len(t, events, 1)
	assert.Equal(t, model.ResultTransientIO, events[0].Result)
}

func TestReconcile_RejectedIsTerminal(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.StartReconcile("view-1", model.CategoryDirectDonation, nil, direct("a.com", 1)))

	require.NoError(t, f.host.Respond("/v2/reconcile/", host.Response{Status: 400}))

	assert.False(t, f.ledger.ReconcileExists("view-1"))
	assert.Empty(t, f.host.Timers)
	events := f.host.EventsNamed(testutil.EventReconcileComplete)
	require.Len(t, events, 1)
	assert.Equal(t, model.ResultLedgerError, events[0].Result)
	assert.Equal(t, "view-1", events[0].ViewingID)
}

func TestReconcile_MalformedResponse(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.StartReconcile("view-1", model.CategoryDirectDonation, nil, direct("a.com", 1)))

	require.NoError(t, f.host.Respond("/v2/reconcile/", host.Response{Status: 200, Body: `{"probi":"lots"}`}))

	assert.False(t, f.ledger.ReconcileExists("view-1"))
	assert.Empty(t, f.host.Contributions)
}

func TestOnTimer_UnknownID(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.engine.OnTimer(42))
}

func TestOnStartUp_ResumesFromRecordedStep(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.AddReconcile(state.ReconcileRecord{
		ViewingID:  "sent",
		Category:   model.CategoryDirectDonation,
		Directions: direct("a.com", 1),
		Amount:     decimal.NewFromInt(1),
		Currency:   "BAT",
		Step:       state.StepRequestSent,
		CreatedAt:  10,
	}))
	require.NoError(t, f.ledger.AddReconcile(state.ReconcileRecord{
		ViewingID:  "failed",
		Category:   model.CategoryRecurringDonation,
		Directions: direct("b.com", 2),
		Amount:     decimal.NewFromInt(2),
		Currency:   "BAT",
		Step:       state.StepFailed,
		RetryStep:  state.StepRequestSent,
		RetryLevel: 2,
		CreatedAt:  20,
	}))
	require.NoError(t, f.ledger.AddReconcile(state.ReconcileRecord{
		ViewingID: "weightless",
		Category:  model.CategoryDirectDonation,
		Step:      state.StepDirectionsComputed,
		CreatedAt: 30,
	}))

	f.engine.OnStartUp()

	pending := f.host.Pending("/v2/reconcile/")
	require.Len(t, pending, 1)
	assert.Contains(t, pending[0].Request.Body, `"viewingId":"sent"`)

	require.Len(t, f.host.Timers, 1)
	assert.Equal(t, uint64(300), f.host.Timers[0].Delay)
	assert.Equal(t, 1, f.engine.PendingRetries())

	assert.False(t, f.ledger.ReconcileExists("weightless"))
	events := f.host.EventsNamed(testutil.EventReconcileComplete)
	require.Len(t, events, 1)
	assert.Equal(t, model.ResultZeroWeight, events[0].Result)

	require.True(t, f.engine.OnTimer(f.host.Timers[0].ID))
	assert.Len(t, f.host.Pending("/v2/reconcile/"), 2)
}

func TestStaleResponseDropped(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.AddReconcile(state.ReconcileRecord{
		ViewingID:  "view-1",
		Category:   model.CategoryDirectDonation,
		Directions: direct("a.com", 1),
		Amount:     decimal.NewFromInt(1),
		Step:       state.StepRequestSent,
	}))

	// Two sends of the same record; only the latest response counts.
	f.engine.resume("view-1")
	f.engine.resume("view-1")
	pending := f.host.Pending("/v2/reconcile/")
	require.Len(t, pending, 2)

	require.NoError(t, f.host.RespondTo(pending[0], host.Response{Status: 200, Body: `{"probi":"1"}`}))
	assert.True(t, f.ledger.ReconcileExists("view-1"))
	assert.Empty(t, f.host.Contributions)

	require.NoError(t, f.host.RespondTo(pending[1], host.Response{Status: 200, Body: `{"probi":"1"}`}))
	assert.False(t, f.ledger.ReconcileExists("view-1"))
	assert.Len(t, f.host.Contributions, 1)
}

func enableAutoContribute(f *fixture, balance int64) {
	f.ledger.SetRewardsEnabled(true)
	f.ledger.SetAutoContribute(true)
	f.ledger.SetWalletProperties(model.WalletProperties{
		Balance:   decimal.NewFromInt(balance),
		FeeAmount: decimal.NewFromInt(10),
	})
	f.ledger.SetContributionAmount(decimal.NewFromInt(10))
}

func TestReconcileTimer_AutoContribute(t *testing.T) {
	f := newFixture(t)
	enableAutoContribute(f, 25)
	f.ledger.SetReconcileStamp(testNow - 1)
	f.pubs.eligible = []model.PublisherInfo{
		{ID: "a.com", Duration: 30},
		{ID: "b.com", Duration: 10},
	}

	f.engine.SetReconcileTimer()
	f.engine.SetReconcileTimer()
	require.Len(t, f.host.Timers, 1, "reconcile timer is single-flight")
	assert.Equal(t, uint64(0), f.host.Timers[0].Delay)
	assert.True(t, f.engine.ReconcileTimerPending())

	require.True(t, f.engine.OnTimer(f.host.Timers[0].ID))
	assert.False(t, f.engine.ReconcileTimerPending())

	recs := f.ledger.Reconciles()
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, model.CategoryAutoContribute, rec.Category)
	assert.Equal(t, "guid-1", rec.ViewingID)
	assert.True(t, rec.Amount.Equal(decimal.NewFromInt(10)))
	require.Len(t, rec.Directions, 2)
	assert.True(t, rec.Directions[0].Weight.Equal(decimal.RequireFromString("0.75")))
	assert.True(t, rec.Directions[1].Weight.Equal(decimal.RequireFromString("0.25")))

	require.NoError(t, f.host.Respond("/v2/reconcile/", host.Response{Status: 200, Body: `{"probi":"10000000000000000000"}`}))

	assert.Equal(t, 1, f.pubs.resets)
	assert.Equal(t, uint64(testNow)+schedule.ReconcileInterval, f.ledger.Settings().ReconcileStamp)
	assert.True(t, f.engine.ReconcileTimerPending())
	timer, _ := f.host.LastTimer()
	assert.Equal(t, schedule.ReconcileInterval, timer.Delay)
	assert.Equal(t, model.ReportAutoContribute, f.pubs.items[0].Kind)
}

func TestReconcileTimer_NotEnoughFunds(t *testing.T) {
	f := newFixture(t)
	enableAutoContribute(f, 3)
	f.ledger.SetReconcileStamp(testNow)
	f.pubs.eligible = []model.PublisherInfo{{ID: "a.com", Duration: 30}}

	f.engine.SetReconcileTimer()
	timer, _ := f.host.LastTimer()
	require.True(t, f.engine.OnTimer(timer.ID))

	assert.Empty(t, f.ledger.Reconciles())
	events := f.host.EventsNamed(testutil.EventReconcileComplete)
	require.Len(t, events, 1)
	assert.Equal(t, model.ResultNotEnoughFunds, events[0].Result)
	assert.Equal(t, model.CategoryAutoContribute, events[0].Category)

	assert.Equal(t, uint64(testNow)+schedule.ReconcileInterval, f.ledger.Settings().ReconcileStamp)
	assert.True(t, f.engine.ReconcileTimerPending())
}

func TestReconcileTimer_DisabledSkipsPeriod(t *testing.T) {
	f := newFixture(t)
	f.ledger.SetReconcileStamp(testNow - 5)
	f.pubs.eligible = []model.PublisherInfo{{ID: "a.com", Duration: 30}}

	f.engine.SetReconcileTimer()
	timer, _ := f.host.LastTimer()
	require.True(t, f.engine.OnTimer(timer.ID))

	assert.Empty(t, f.ledger.Reconciles())
	assert.Empty(t, f.host.Events)
	assert.Equal(t, uint64(testNow)+schedule.ReconcileInterval, f.ledger.Settings().ReconcileStamp)
}

func TestReconcileTimer_ZeroStampArmsFullInterval(t *testing.T) {
	f := newFixture(t)

	f.engine.SetReconcileTimer()

	assert.Equal(t, uint64(testNow)+schedule.ReconcileInterval, f.ledger.Settings().ReconcileStamp)
	timer, _ := f.host.LastTimer()
	assert.Equal(t, schedule.ReconcileInterval, timer.Delay)
	assert.Equal(t, uint64(testNow)+schedule.ReconcileInterval, f.persisted(t).Settings().ReconcileStamp)
}

func TestReconcileTimer_StartsRecurring(t *testing.T) {
	f := newFixture(t)
	f.ledger.SetReconcileStamp(testNow)
	f.host.Recurring["a.com"] = model.RecurringDonation{PublisherID: "a.com", Amount: decimal.NewFromInt(5)}
	f.host.Recurring["b.com"] = model.RecurringDonation{PublisherID: "b.com", Amount: decimal.NewFromInt(2)}

	f.engine.SetReconcileTimer()
	timer, _ := f.host.LastTimer()
	require.True(t, f.engine.OnTimer(timer.ID))

	require.True(t, f.ledger.HasActiveCategory(model.CategoryRecurringDonation))
	rec := f.ledger.Reconciles()[0]
	assert.True(t, rec.Amount.Equal(decimal.NewFromInt(7)))
	assert.Len(t, rec.Directions, 2)
}
