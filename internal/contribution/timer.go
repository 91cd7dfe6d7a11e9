package contribution

import (
	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/state"
)

// SetReconcileTimer arms the auto-contribute timer from the reconcile
// stamp. It is a no-op while the timer is pending. A zero stamp is first
// set one interval from now.
func (e *Engine) SetReconcileTimer() {
	if e.reconcileTimer.Pending() {
		return
	}
	now := e.now()
	stamp := e.ledger.Settings().ReconcileStamp
	if stamp == 0 {
		e.resetReconcileStamp()
		e.persist()
		stamp = e.ledger.Settings().ReconcileStamp
	}

	var delay uint64
	if stamp > now {
		delay = stamp - now
	}
	e.reconcileTimer.Arm(e.host.SetTimer(delay))
	e.log.Debug("reconcile timer armed", "delay", delay, "stamp", stamp)
}

// ReconcileTimerPending reports whether the auto-contribute timer is armed.
func (e *Engine) ReconcileTimerPending() bool {
	return e.reconcileTimer.Pending()
}

func (e *Engine) resetReconcileStamp() {
	e.ledger.SetReconcileStamp(e.now() + e.interval)
}

// OnTimer handles timers the engine armed and reports whether id was one
// of them.
func (e *Engine) OnTimer(id host.TimerID) bool {
	if e.reconcileTimer.Fire(id) {
		e.onReconcileTimer()
		return true
	}
	if viewingID, ok := e.retryTimers[id]; ok {
		delete(e.retryTimers, id)
		e.resume(viewingID)
		return true
	}
	return false
}

func (e *Engine) onReconcileTimer() {
	if stamp := e.ledger.Settings().ReconcileStamp; stamp > e.now() {
		// Fired early, e.g. after a clock change. Wait out the remainder.
		e.SetReconcileTimer()
		return
	}
	e.StartAutoContribute()
	e.StartRecurring()
}

// StartAutoContribute settles the month's attention across the eligible
// publishers. When auto-contribute is off, nothing qualifies, or funds are
// short, the stamp moves one interval ahead and the timer is re-armed.
func (e *Engine) StartAutoContribute() {
	settings := e.ledger.Settings()
	if e.ledger.HasActiveCategory(model.CategoryAutoContribute) {
		e.log.Debug("auto-contribute already running")
		return
	}
	if !settings.RewardsEnabled || !settings.AutoContributeEnabled {
		e.log.Info("auto-contribute disabled, skipping period")
		e.skipPeriod()
		return
	}
	winners := e.publishers.EligiblePublishers()
	if len(Winners(winners)) == 0 {
		e.log.Info("no eligible publishers, skipping period")
		e.skipPeriod()
		return
	}
	if !e.ledger.HasSufficientBalance() {
		e.log.Warn("not enough funds for auto-contribute",
			"balance", e.ledger.Balance().String(),
			"amount", settings.ContributionAmount.String())
		e.sink.OnReconcileComplete(model.ResultNotEnoughFunds, "", model.CategoryAutoContribute, "")
		e.skipPeriod()
		return
	}

	if err := e.StartReconcile(e.host.GenerateGUID(), model.CategoryAutoContribute, winners, nil); err != nil {
		e.log.Error("start auto-contribute", "error", err)
		e.skipPeriod()
	}
}

func (e *Engine) skipPeriod() {
	e.resetReconcileStamp()
	e.persist()
	e.SetReconcileTimer()
}

// StartRecurring sends the pledged recurring donations as one reconcile.
func (e *Engine) StartRecurring() {
	if e.ledger.HasActiveCategory(model.CategoryRecurringDonation) {
		e.log.Debug("recurring donations already running")
		return
	}
	e.host.LoadRecurringDonations(func(donations []model.RecurringDonation) {
		var dirs []model.Direction
		for _, d := range donations {
			dirs = append(dirs, model.Direction{
				PublisherID: d.PublisherID,
				Weight:      d.Amount,
				Currency:    DefaultCurrency,
			})
		}
		if len(positive(dirs)) == 0 {
			return
		}
		if err := e.StartReconcile(e.host.GenerateGUID(), model.CategoryRecurringDonation, nil, dirs); err != nil {
			e.log.Error("start recurring donations", "error", err)
		}
	})
}

// OnStartUp resumes every persisted reconcile from its recorded step.
// FAILED records wait out their retry delay again; the rest are re-sent.
func (e *Engine) OnStartUp() {
	for _, rec := range e.ledger.Reconciles() {
		if rec.Step == state.StepFailed && rec.RetryLevel > 0 {
			delay, err := e.retry.Delay(rec.ViewingID, rec.RetryLevel)
			if err != nil {
				e.fail(rec, model.ResultTransientIO)
				continue
			}
			id := e.host.SetTimer(delay)
			e.retryTimers[id] = rec.ViewingID
			e.log.Info("reconcile resumed", "viewing_id", rec.ViewingID, "step", rec.Step, "retry_in", delay)
			continue
		}
		e.log.Info("reconcile resumed", "viewing_id", rec.ViewingID, "step", rec.Step)
		e.resume(rec.ViewingID)
	}
}

func (e *Engine) resume(viewingID string) {
	rec, ok := e.ledger.Reconcile(viewingID)
	if !ok {
		return
	}
	if !rec.TotalWeight().IsPositive() {
		e.fail(rec, model.ResultZeroWeight)
		return
	}
	e.send(viewingID)
}

// PendingRetries returns how many retry timers are armed.
func (e *Engine) PendingRetries() int {
	return len(e.retryTimers)
}
