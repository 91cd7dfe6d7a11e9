package publisher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/testutil"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestReportKey(t *testing.T) {
	assert.Equal(t, "2023_11", ReportKey(time.November, 2023))
	assert.Equal(t, "2024_01", ReportKey(time.January, 2024))
}

func TestSetBalanceReportItem(t *testing.T) {
	tr, _, _ := newTracker(t)

	tr.SetBalanceReportItem(time.March, 2023, model.ReportGrant, mustDecimal(t, "30"))
	tr.SetBalanceReportItem(time.March, 2023, model.ReportDeposit, mustDecimal(t, "5"))
	tr.SetBalanceReportItem(time.March, 2023, model.ReportAutoContribute, mustDecimal(t, "10"))
	tr.SetBalanceReportItem(time.March, 2023, model.ReportTip, mustDecimal(t, "2.5"))
	tr.SetBalanceReportItem(time.March, 2023, model.ReportRecurringDonation, mustDecimal(t, "1"))

	r, ok := tr.BalanceReport(time.March, 2023)
	require.True(t, ok)
	assert.True(t, r.Grants.Equal(mustDecimal(t, "30")))
	assert.True(t, r.Total.Equal(mustDecimal(t, "21.5")))
	assert.True(t, r.Closing.Equal(mustDecimal(t, "21.5")))

	_, ok = tr.BalanceReport(time.April, 2023)
	assert.False(t, ok)
}

func TestSetBalanceReport_OpeningCarries(t *testing.T) {
	tr, _, _ := newTracker(t)
	tr.SetBalanceReport(time.May, 2023, model.BalanceReport{Opening: mustDecimal(t, "100")})
	tr.SetBalanceReportItem(time.May, 2023, model.ReportTip, mustDecimal(t, "4"))

	r, _ := tr.BalanceReport(time.May, 2023)
	assert.True(t, r.Closing.Equal(mustDecimal(t, "96")))
}

func TestBalanceReport_CurrentMonthNotifies(t *testing.T) {
	tr, _, h := newTracker(t)
	current := h.Now()

	tr.SetBalanceReportItem(time.January, 2001, model.ReportGrant, mustDecimal(t, "1"))
	assert.Empty(t, h.EventsNamed(testutil.EventBalanceReport))

	tr.SetBalanceReportItem(current.Month(), current.Year(), model.ReportGrant, mustDecimal(t, "1"))
	events := h.EventsNamed(testutil.EventBalanceReport)
	require.Len(t, events, 1)
	assert.Equal(t, current.Month(), events[0].Month)
	assert.True(t, events[0].Report.Grants.Equal(mustDecimal(t, "1")))
}

func TestClearAllBalanceReports(t *testing.T) {
	tr, _, _ := newTracker(t)
	tr.SetBalanceReportItem(time.March, 2023, model.ReportGrant, mustDecimal(t, "1"))

	tr.ClearAllBalanceReports()
	assert.Empty(t, tr.AllBalanceReports())
}
