package publisher

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/model"
)

// ReportKey is the map key of a monthly balance report.
func ReportKey(month time.Month, year int) string {
	return fmt.Sprintf("%04d_%02d", year, int(month))
}

// BalanceReport returns the report for the given month.
func (t *Tracker) BalanceReport(month time.Month, year int) (model.BalanceReport, bool) {
	r, ok := t.reports[ReportKey(month, year)]
	return r, ok
}

// AllBalanceReports returns a copy of every report keyed by ReportKey.
func (t *Tracker) AllBalanceReports() map[string]model.BalanceReport {
	out := make(map[string]model.BalanceReport, len(t.reports))
	for k, v := range t.reports {
		out[k] = v
	}
	return out
}

// SetBalanceReport replaces one month's report.
func (t *Tracker) SetBalanceReport(month time.Month, year int, report model.BalanceReport) {
	t.reports[ReportKey(month, year)] = normalizeReport(report)
	t.persist()
	t.notifyIfCurrent(month, year)
}

// SetBalanceReportItem adds probi to one line of a month's report.
// Grants and deposits credit the total; contributions debit it.
func (t *Tracker) SetBalanceReportItem(month time.Month, year int, kind model.ReportType, probi decimal.Decimal) {
	key := ReportKey(month, year)
	r := normalizeReport(t.reports[key])

	switch kind {
	case model.ReportGrant:
		r.Grants = r.Grants.Add(probi)
	case model.ReportDeposit:
		r.Deposits = r.Deposits.Add(probi)
	case model.ReportAutoContribute:
		r.AutoContribute = r.AutoContribute.Add(probi)
	case model.ReportTip:
		r.Tips = r.Tips.Add(probi)
	case model.ReportRecurringDonation:
		r.RecurringDonation = r.RecurringDonation.Add(probi)
	default:
		t.log.Warn("unknown balance report item", "type", kind)
		return
	}

	t.reports[key] = normalizeReport(r)
	t.persist()
	t.notifyIfCurrent(month, year)
}

// ClearAllBalanceReports drops every report. A recovered wallet starts
// its history afresh.
func (t *Tracker) ClearAllBalanceReports() {
	if len(t.reports) == 0 {
		return
	}
	t.reports = make(map[string]model.BalanceReport)
	t.persist()
}

func (t *Tracker) notifyIfCurrent(month time.Month, year int) {
	now := t.host.Now()
	if now.Month() != month || now.Year() != year {
		return
	}
	t.host.OnBalanceReport(month, year, t.reports[ReportKey(month, year)])
}

// normalizeReport recomputes the derived Total and Closing lines.
func normalizeReport(r model.BalanceReport) model.BalanceReport {
	credits := r.Grants.Add(r.Deposits)
	debits := r.AutoContribute.Add(r.Tips).Add(r.RecurringDonation)
	r.Total = credits.Sub(debits)
	r.Closing = r.Opening.Add(r.Total)
	return r
}
