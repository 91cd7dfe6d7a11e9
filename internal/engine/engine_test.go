package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/state"
	"github.com/roach88/rewards/internal/testutil"
)

const testNow = 1700000000

var testURLs = Endpoints{
	Ledger:    "https://ledger.test",
	Balance:   "https://balance.test",
	Publisher: "https://publishers.test",
}

func newEngine(t *testing.T) (*Engine, *testutil.FakeHost) {
	t.Helper()
	h := testutil.NewFakeHost(testNow)
	return New(h, WithEndpoints(testURLs)), h
}

func ok(body string) host.Response {
	return host.Response{Status: 200, Body: body}
}

const registrationBody = `{
	"wallet": {"paymentId": "pay-1", "addresses": {"BAT": "0xbat", "BTC": "1btc", "ETH": "0xeth", "LTC": "Lltc"}},
	"userId": "user-1",
	"parameters": {"fee": "10", "days": 30}
}`

// createWallet drives CreateWallet through both registrar round trips.
func createWallet(t *testing.T, e *Engine, h *testutil.FakeHost) {
	t.Helper()
	require.NoError(t, e.CreateWallet())
	require.NoError(t, h.Respond("/v2/registrar/persona", ok(`{"registrarVK":"vk"}`)))
	require.NoError(t, h.Respond("/v2/registrar/persona/", ok(registrationBody)))
}

// seedWallet stores the ledger blob of a created wallet in h.
func seedWallet(t *testing.T, h *testutil.FakeHost) {
	t.Helper()
	src, hs := newEngine(t)
	createWallet(t, src, hs)
	h.Blobs[host.BlobLedgerState] = hs.Blobs[host.BlobLedgerState]
	require.NotEmpty(t, h.Blobs[host.BlobLedgerState])
}

func lastInit(t *testing.T, h *testutil.FakeHost) model.Result {
	t.Helper()
	evs := h.EventsNamed(testutil.EventWalletInitialized)
	require.NotEmpty(t, evs)
	return evs[len(evs)-1].Result
}

func TestInitialize_NoWallet(t *testing.T) {
	e, h := newEngine(t)

	require.NoError(t, e.Initialize())

	assert.Equal(t, model.ResultNotFound, lastInit(t, h))
	assert.Equal(t, Uninitialized, e.Lifecycle())
	assert.Empty(t, h.Timers, "no background work without a wallet")
}

func TestInitialize_LoadsStateAndStartsRefreshes(t *testing.T) {
	e, h := newEngine(t)
	seedWallet(t, h)

	require.NoError(t, e.Initialize())

	assert.Equal(t, model.ResultOK, lastInit(t, h))
	assert.Equal(t, Initialized, e.Lifecycle())
	assert.Equal(t, "pay-1", e.Ledger().PaymentID())
	assert.True(t, e.PublisherListTimerPending())
	assert.True(t, e.GrantTimerPending())
	assert.True(t, e.contrib.ReconcileTimerPending())
}

func TestInitialize_Idempotent(t *testing.T) {
	e, h := newEngine(t)
	seedWallet(t, h)

	require.NoError(t, e.Initialize())
	timers := len(h.Timers)
	require.NoError(t, e.Initialize())

	assert.Len(t, h.EventsNamed(testutil.EventWalletInitialized), 1)
	assert.Len(t, h.Timers, timers, "a second Initialize must not arm more timers")
}

func TestInitialize_InvalidLedgerState(t *testing.T) {
	e, h := newEngine(t)
	h.Blobs[host.BlobLedgerState] = "{not json"

	require.NoError(t, e.Initialize())

	assert.Equal(t, model.ResultInvalidLedgerState, lastInit(t, h))
	assert.Equal(t, InitFailed, e.Lifecycle())
}

func TestInitialize_InvalidPublisherState(t *testing.T) {
	e, h := newEngine(t)
	seedWallet(t, h)
	h.Blobs[host.BlobPublisherState] = "garbage"

	require.NoError(t, e.Initialize())

	assert.Equal(t, model.ResultInvalidPublisherState, lastInit(t, h))
	assert.Equal(t, InitFailed, e.Lifecycle())
}

func TestInitialize_LoadFailure(t *testing.T) {
	e, h := newEngine(t)
	h.LoadFails[host.BlobLedgerState] = model.ResultLedgerError

	require.NoError(t, e.Initialize())

	assert.Equal(t, model.ResultLedgerError, lastInit(t, h))
	assert.Equal(t, InitFailed, e.Lifecycle())
}

func TestCreateWallet(t *testing.T) {
	e, h := newEngine(t)
	require.NoError(t, e.Initialize())

	createWallet(t, e, h)

	assert.Equal(t, model.ResultWalletCreated, lastInit(t, h))
	assert.Equal(t, Initialized, e.Lifecycle())
	assert.True(t, e.IsWalletCreated())
	assert.True(t, e.RewardsMainEnabled())

	// The persisted ledger reloads into the same wallet.
	reloaded, err := state.Decode(h.Blobs[host.BlobLedgerState])
	require.NoError(t, err)
	assert.Equal(t, "pay-1", reloaded.PaymentID())
}

func TestCreateWallet_InProgress(t *testing.T) {
	e, h := newEngine(t)

	require.NoError(t, e.CreateWallet())
	err := e.CreateWallet()
	require.Error(t, err)
	assert.True(t, IsAlreadyInProgress(err))
	assert.Len(t, h.Pending("/v2/registrar/persona"), 1)
}

func TestCreateWallet_AlreadyInitialized(t *testing.T) {
	e, h := newEngine(t)
	createWallet(t, e, h)

	err := e.CreateWallet()
	require.Error(t, err)
	assert.True(t, IsAlreadyInitialized(err))
	assert.Equal(t, model.ResultLedgerError, lastInit(t, h))
}

func TestCreateWallet_Failure(t *testing.T) {
	e, h := newEngine(t)
	require.NoError(t, e.CreateWallet())
	require.NoError(t, h.Respond("/v2/registrar/persona", host.Response{Status: 500}))

	assert.Equal(t, InitFailed, e.Lifecycle())
	assert.False(t, e.IsWalletCreated())
	assert.False(t, e.GrantTimerPending())
}

func TestRuntimeError_Result(t *testing.T) {
	tests := []struct {
		code RuntimeErrorCode
		want model.Result
	}{
		{ErrCodeAlreadyInProgress, model.ResultAlreadyInProgress},
		{ErrCodeAlreadyInitialized, model.ResultLedgerError},
		{ErrCodeInvalidArgument, model.ResultLedgerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := &RuntimeError{Code: tt.code, Message: "m"}
			assert.Equal(t, tt.want, err.Result())
			assert.Contains(t, err.Error(), string(tt.code))
		})
	}
}
