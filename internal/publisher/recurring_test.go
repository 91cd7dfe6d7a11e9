package publisher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/testutil"
)

func TestAddRecurringPayment_Broadcasts(t *testing.T) {
	tr, _, h := newTracker(t)

	tr.AddRecurringPayment("a.com", mustDecimal(t, "5"))

	require.Contains(t, h.Recurring, "a.com")
	assert.Equal(t, uint64(now), h.Recurring["a.com"].AddedAt)

	events := h.EventsNamed(testutil.EventRecurringDonations)
	require.Len(t, events, 1)
	require.Len(t, events[0].Donations, 1)
	assert.True(t, events[0].Donations[0].Amount.Equal(mustDecimal(t, "5")))
}

func TestRemoveRecurring(t *testing.T) {
	tr, _, h := newTracker(t)
	tr.AddRecurringPayment("a.com", mustDecimal(t, "5"))

	var got model.Result
	tr.RemoveRecurring("a.com", func(r model.Result) { got = r })

	assert.Equal(t, model.ResultOK, got)
	assert.NotContains(t, h.Recurring, "a.com")
	assert.Len(t, h.EventsNamed(testutil.EventRecurringDonations), 2)
}

func TestRemoveRecurring_FailureNotBroadcast(t *testing.T) {
	tr, _, h := newTracker(t)
	h.RemoveResult = model.ResultLedgerError

	var got model.Result
	tr.RemoveRecurring("a.com", func(r model.Result) { got = r })

	assert.Equal(t, model.ResultLedgerError, got)
	assert.Empty(t, h.EventsNamed(testutil.EventRecurringDonations))
}
