package engine

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/model"
)

// Setters mutate the ledger, persist it, and return. Eligibility settings
// also re-weigh the publishers.

func (e *Engine) SetRewardsMainEnabled(enabled bool) {
	e.ledger.SetRewardsEnabled(enabled)
	e.saveLedger()
}

func (e *Engine) SetPublisherMinVisitTime(seconds uint64) {
	e.ledger.SetMinVisitDuration(seconds)
	e.saveLedger()
	e.tracker.Reweigh()
}

func (e *Engine) SetPublisherMinVisits(visits uint32) {
	e.ledger.SetMinVisitCount(visits)
	e.saveLedger()
	e.tracker.Reweigh()
}

func (e *Engine) SetPublisherAllowNonVerified(allow bool) {
	e.ledger.SetAllowNonVerified(allow)
	e.saveLedger()
	e.tracker.Reweigh()
}

func (e *Engine) SetPublisherAllowVideos(allow bool) {
	e.ledger.SetAllowVideos(allow)
	e.saveLedger()
	e.tracker.Reweigh()
}

func (e *Engine) SetContributionAmount(amount decimal.Decimal) {
	e.ledger.SetContributionAmount(amount)
	e.saveLedger()
}

func (e *Engine) SetUserChangedContribution() {
	e.ledger.SetUserChangedContribution()
	e.saveLedger()
}

func (e *Engine) SetAutoContribute(enabled bool) {
	e.ledger.SetAutoContribute(enabled)
	e.saveLedger()
}

// Getters are pure reads of the ledger.

func (e *Engine) RewardsMainEnabled() bool { return e.ledger.Settings().RewardsEnabled }

func (e *Engine) PublisherMinVisitTime() uint64 { return e.ledger.Settings().MinVisitDuration }

func (e *Engine) PublisherMinVisits() uint32 { return e.ledger.Settings().MinVisitCount }

func (e *Engine) PublisherAllowNonVerified() bool { return e.ledger.Settings().AllowNonVerified }

func (e *Engine) PublisherAllowVideos() bool { return e.ledger.Settings().AllowVideos }

func (e *Engine) ContributionAmount() decimal.Decimal { return e.ledger.Settings().ContributionAmount }

func (e *Engine) UserChangedContribution() bool { return e.ledger.Settings().UserChangedContribution }

func (e *Engine) AutoContribute() bool { return e.ledger.Settings().AutoContributeEnabled }

func (e *Engine) ReconcileStamp() uint64 { return e.ledger.Settings().ReconcileStamp }

func (e *Engine) IsWalletCreated() bool { return e.ledger.IsWalletCreated() }

func (e *Engine) Balance() decimal.Decimal { return e.ledger.Balance() }

// Addresses returns the wallet's deposit addresses keyed BAT, BTC, ETH
// and LTC.
func (e *Engine) Addresses() map[string]string { return e.ledger.Addresses().Map() }

// AutoContributeProps returns the auto-contribute settings in one read.
func (e *Engine) AutoContributeProps() model.AutoContributeProps {
	s := e.ledger.Settings()
	return model.AutoContributeProps{
		Enabled:        s.AutoContributeEnabled,
		MinTime:        s.MinVisitDuration,
		MinVisits:      s.MinVisitCount,
		NonVerified:    s.AllowNonVerified,
		Videos:         s.AllowVideos,
		ReconcileStamp: s.ReconcileStamp,
	}
}
