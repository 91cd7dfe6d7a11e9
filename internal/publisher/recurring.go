package publisher

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/model"
)

// AddRecurringPayment pledges amount to publisherID every reconcile
// period and broadcasts the updated pledge list.
func (t *Tracker) AddRecurringPayment(publisherID string, amount decimal.Decimal) {
	donation := model.RecurringDonation{
		PublisherID: publisherID,
		Amount:      amount,
		AddedAt:     uint64(t.host.Now().Unix()),
	}
	t.host.SaveRecurringDonation(donation, func(result model.Result) {
		if !result.OK() {
			t.log.Error("save recurring donation failed", "publisher_id", publisherID, "result", result)
			return
		}
		t.broadcastRecurring()
	})
}

// RemoveRecurring drops the pledge to publisherID. done receives the
// host's result; on success the updated list is broadcast first.
func (t *Tracker) RemoveRecurring(publisherID string, done func(model.Result)) {
	t.host.RemoveRecurring(publisherID, func(result model.Result) {
		if result.OK() {
			t.broadcastRecurring()
		}
		if done != nil {
			done(result)
		}
	})
}

// GetRecurringDonations loads the current pledges.
func (t *Tracker) GetRecurringDonations(cb func([]model.RecurringDonation)) {
	t.host.LoadRecurringDonations(cb)
}

func (t *Tracker) broadcastRecurring() {
	t.host.LoadRecurringDonations(func(list []model.RecurringDonation) {
		t.host.OnRecurringDonationUpdated(list)
	})
}
