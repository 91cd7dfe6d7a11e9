package localhost

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
)

func (h *Host) OnWalletInitialized(result model.Result) { h.notify.OnWalletInitialized(result) }

func (h *Host) OnWalletProperties(result model.Result, props *model.WalletProperties) {
	h.notify.OnWalletProperties(result, props)
}

func (h *Host) OnGrant(result model.Result, grant model.Grant) { h.notify.OnGrant(result, grant) }

func (h *Host) OnGrantCaptcha(image, hint string) { h.notify.OnGrantCaptcha(image, hint) }

func (h *Host) OnGrantFinish(result model.Result, grant model.Grant) {
	h.notify.OnGrantFinish(result, grant)
}

func (h *Host) OnRecoverWallet(result model.Result, balance decimal.Decimal, grants []model.Grant) {
	h.notify.OnRecoverWallet(result, balance, grants)
}

func (h *Host) OnReconcileComplete(result model.Result, viewingID string, category model.Category, probi string) {
	h.notify.OnReconcileComplete(result, viewingID, category, probi)
}

func (h *Host) OnPublisherActivity(result model.Result, info *model.PublisherInfo, windowID uint64) {
	h.notify.OnPublisherActivity(result, info, windowID)
}

func (h *Host) OnExcludedSitesChanged(publisherID string) { h.notify.OnExcludedSitesChanged(publisherID) }

func (h *Host) OnRecurringDonationUpdated(donations []model.RecurringDonation) {
	h.notify.OnRecurringDonationUpdated(donations)
}

func (h *Host) OnBalanceReport(month time.Month, year int, report model.BalanceReport) {
	h.notify.OnBalanceReport(month, year, report)
}

// LogNotifier logs every notification.
type LogNotifier struct {
	Log *slog.Logger
}

var _ host.Notifier = LogNotifier{}

func (n LogNotifier) OnWalletInitialized(result model.Result) {
	n.Log.Info("wallet initialized", "result", result)
}

func (n LogNotifier) OnWalletProperties(result model.Result, props *model.WalletProperties) {
	if props == nil {
		n.Log.Info("wallet properties", "result", result)
		return
	}
	n.Log.Info("wallet properties", "result", result, "balance", props.Balance.String(), "grants", len(props.Grants))
}

func (n LogNotifier) OnGrant(result model.Result, grant model.Grant) {
	n.Log.Info("grant", "result", result, "promotion_id", grant.PromotionID)
}

func (n LogNotifier) OnGrantCaptcha(image, hint string) {
	n.Log.Info("grant captcha", "hint", hint, "image_bytes", len(image))
}

func (n LogNotifier) OnGrantFinish(result model.Result, grant model.Grant) {
	n.Log.Info("grant finished", "result", result, "probi", grant.Probi, "expiry_time", grant.ExpiryTime)
}

func (n LogNotifier) OnRecoverWallet(result model.Result, balance decimal.Decimal, grants []model.Grant) {
	n.Log.Info("wallet recovered", "result", result, "balance", balance.String(), "grants", len(grants))
}

func (n LogNotifier) OnReconcileComplete(result model.Result, viewingID string, category model.Category, probi string) {
	n.Log.Info("reconcile complete", "result", result, "viewing_id", viewingID, "category", category, "probi", probi)
}

func (n LogNotifier) OnPublisherActivity(result model.Result, info *model.PublisherInfo, windowID uint64) {
	id := ""
	if info != nil {
		id = info.ID
	}
	n.Log.Debug("publisher activity", "result", result, "publisher_id", id, "window_id", windowID)
}

func (n LogNotifier) OnExcludedSitesChanged(publisherID string) {
	n.Log.Info("excluded sites changed", "publisher_id", publisherID)
}

func (n LogNotifier) OnRecurringDonationUpdated(donations []model.RecurringDonation) {
	n.Log.Info("recurring donations updated", "count", len(donations))
}

func (n LogNotifier) OnBalanceReport(month time.Month, year int, report model.BalanceReport) {
	n.Log.Info("balance report", "month", month, "year", year, "total", report.Total.String())
}
