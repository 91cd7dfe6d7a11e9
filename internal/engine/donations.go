package engine

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/contribution"
	"github.com/roach88/rewards/internal/model"
)

// DoDirectDonation tips amount to publisher as a DIRECT_DONATION
// reconcile under a fresh viewing id.
func (e *Engine) DoDirectDonation(publisher model.PublisherInfo, amount decimal.Decimal, currency string) error {
	if publisher.ID == "" {
		e.log.Error("failed direct donation due to missing publisher id")
		return &RuntimeError{Code: ErrCodeInvalidArgument, Message: "direct donation needs a publisher id"}
	}
	if currency == "" {
		currency = contribution.DefaultCurrency
	}
	directions := []model.Direction{{
		PublisherID: publisher.ID,
		Weight:      amount,
		Currency:    currency,
	}}
	return e.contrib.StartReconcile(e.host.GenerateGUID(), model.CategoryDirectDonation, nil, directions)
}

// StartReconcile begins a contribution directly; see
// contribution.Engine.StartReconcile.
func (e *Engine) StartReconcile(viewingID string, category model.Category, publishers []model.PublisherInfo, directions []model.Direction) error {
	return e.contrib.StartReconcile(viewingID, category, publishers, directions)
}

// AddRecurringPayment pledges amount to publisherID every period.
func (e *Engine) AddRecurringPayment(publisherID string, amount decimal.Decimal) {
	e.tracker.AddRecurringPayment(publisherID, amount)
}

// RemoveRecurring drops the pledge to publisherID. A failure is only
// logged.
//
// TODO: report removal failures to the host once it has a notification
// for them.
func (e *Engine) RemoveRecurring(publisherID string) {
	e.tracker.RemoveRecurring(publisherID, func(result model.Result) {
		if !result.OK() {
			e.log.Error("failed to remove recurring", "publisher_id", publisherID, "result", result)
		}
	})
}

// GetRecurringDonations loads the current pledges.
func (e *Engine) GetRecurringDonations(cb func([]model.RecurringDonation)) {
	e.tracker.GetRecurringDonations(cb)
}

// contributionSink forwards reconcile outcomes to the host.
type contributionSink struct{ e *Engine }

func (s contributionSink) OnReconcileComplete(result model.Result, viewingID string, category model.Category, probi string) {
	s.e.host.OnReconcileComplete(result, viewingID, category, probi)
}
