package cli

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
)

// Notification names delivered by recorder.
const (
	eventWalletInitialized = "wallet_initialized"
	eventWalletProperties  = "wallet_properties"
	eventGrant             = "grant"
	eventGrantCaptcha      = "grant_captcha"
	eventGrantFinish       = "grant_finish"
	eventRecoverWallet     = "recover_wallet"
	eventReconcileComplete = "reconcile_complete"
	eventRecurring         = "recurring_donations_updated"
)

// notification is one engine notification, flattened for commands that
// wait on it.
type notification struct {
	Name      string
	Result    model.Result
	Props     *model.WalletProperties
	Grant     model.Grant
	Grants    []model.Grant
	Balance   decimal.Decimal
	Image     string
	Hint      string
	ViewingID string
	Category  model.Category
	Probi     string
	Donations []model.RecurringDonation
}

// recorder forwards notifications to next and copies the ones commands
// wait on onto a channel. Notifications nobody is reading are dropped
// rather than blocking the loop.
type recorder struct {
	next host.Notifier
	ch   chan notification
}

var _ host.Notifier = (*recorder)(nil)

func newRecorder(next host.Notifier) *recorder {
	return &recorder{next: next, ch: make(chan notification, 64)}
}

func (r *recorder) emit(n notification) {
	select {
	case r.ch <- n:
	default:
	}
}

func (r *recorder) OnWalletInitialized(result model.Result) {
	r.next.OnWalletInitialized(result)
	r.emit(notification{Name: eventWalletInitialized, Result: result})
}

func (r *recorder) OnWalletProperties(result model.Result, props *model.WalletProperties) {
	r.next.OnWalletProperties(result, props)
	r.emit(notification{Name: eventWalletProperties, Result: result, Props: props})
}

func (r *recorder) OnGrant(result model.Result, grant model.Grant) {
	r.next.OnGrant(result, grant)
	r.emit(notification{Name: eventGrant, Result: result, Grant: grant})
}

func (r *recorder) OnGrantCaptcha(image, hint string) {
	r.next.OnGrantCaptcha(image, hint)
	r.emit(notification{Name: eventGrantCaptcha, Image: image, Hint: hint})
}

func (r *recorder) OnGrantFinish(result model.Result, grant model.Grant) {
	r.next.OnGrantFinish(result, grant)
	r.emit(notification{Name: eventGrantFinish, Result: result, Grant: grant})
}

func (r *recorder) OnRecoverWallet(result model.Result, balance decimal.Decimal, grants []model.Grant) {
	r.next.OnRecoverWallet(result, balance, grants)
	r.emit(notification{Name: eventRecoverWallet, Result: result, Balance: balance, Grants: grants})
}

func (r *recorder) OnReconcileComplete(result model.Result, viewingID string, category model.Category, probi string) {
	r.next.OnReconcileComplete(result, viewingID, category, probi)
	r.emit(notification{Name: eventReconcileComplete, Result: result, ViewingID: viewingID, Category: category, Probi: probi})
}

func (r *recorder) OnPublisherActivity(result model.Result, info *model.PublisherInfo, windowID uint64) {
	r.next.OnPublisherActivity(result, info, windowID)
}

func (r *recorder) OnExcludedSitesChanged(publisherID string) {
	r.next.OnExcludedSitesChanged(publisherID)
}

func (r *recorder) OnRecurringDonationUpdated(donations []model.RecurringDonation) {
	r.next.OnRecurringDonationUpdated(donations)
	r.emit(notification{Name: eventRecurring, Donations: donations})
}

func (r *recorder) OnBalanceReport(month time.Month, year int, report model.BalanceReport) {
	r.next.OnBalanceReport(month, year, report)
}
