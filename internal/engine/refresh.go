package engine

import (
	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/schedule"
)

// RefreshPublishersList arms the publisher-list download timer unless one
// is already pending. After an error the delay is jittered within the
// retry window; otherwise it is what remains of the refresh interval since
// the last successful load.
func (e *Engine) RefreshPublishersList(retryAfterError bool) {
	if e.publisherListTimer.Pending() {
		return
	}
	var delay uint64
	if retryAfterError {
		delay = e.publisherWin.Jitter()
		e.log.Warn("failed to refresh publisher list, will try again in", "seconds", delay)
	} else {
		delay = schedule.NextDelay(e.ledger.Settings().LastPublisherListTimestamp, e.now(), e.intervals.PublisherList)
	}
	e.publisherListTimer.Arm(e.host.SetTimer(delay))
}

// RefreshGrant arms the grant check timer unless one is already pending,
// with the same delay rules as RefreshPublishersList.
func (e *Engine) RefreshGrant(retryAfterError bool) {
	if e.grantTimer.Pending() {
		return
	}
	var delay uint64
	if retryAfterError {
		delay = e.grantWin.Jitter()
		e.log.Warn("failed to refresh grant, will try again in", "seconds", delay)
	} else {
		delay = schedule.NextDelay(e.ledger.Settings().LastGrantCheckTimestamp, e.now(), e.intervals.Grant)
	}
	e.grantTimer.Arm(e.host.SetTimer(delay))
}

// PublisherListTimerPending reports whether a list download is scheduled.
func (e *Engine) PublisherListTimerPending() bool {
	return e.publisherListTimer.Pending()
}

// GrantTimerPending reports whether a grant check is scheduled.
func (e *Engine) GrantTimerPending() bool {
	return e.grantTimer.Pending()
}

// OnTimer dispatches a fired timer to whichever component armed it.
func (e *Engine) OnTimer(id host.TimerID) {
	switch {
	case e.publisherListTimer.Fire(id):
		e.downloadPublisherList()
	case e.grantTimer.Fire(id):
		e.wallet.FetchGrant("", "")
	case e.contrib.OnTimer(id):
	default:
		e.log.Debug("unknown timer fired", "timer_id", id)
	}
}

func (e *Engine) downloadPublisherList() {
	e.host.LoadURL(host.Request{
		URL:    e.urls.Publisher + PublisherListPath,
		Method: host.MethodGet,
	}, e.onPublisherListDownloaded)
}

func (e *Engine) onPublisherListDownloaded(resp host.Response) {
	e.log.Debug("response",
		"func", "publisherList",
		"ok", resp.OK(),
		"status", resp.Status,
		"bytes", len(resp.Body))

	if !resp.OK() || resp.Body == "" {
		e.log.Error("can't fetch publisher list", "status", resp.Status)
		e.RefreshPublishersList(true)
		return
	}
	blob, err := e.tracker.ApplyPublisherList(resp.Body)
	if err != nil {
		e.log.Error("bad publisher list", "error", err)
		e.RefreshPublishersList(true)
		return
	}
	e.log.Info("publisher list refreshed", "verified", e.tracker.RegistrySize())
	e.host.SavePublisherList(blob, e.onPublisherListSaved)
}

func (e *Engine) onPublisherListSaved(result model.Result) {
	if result.OK() {
		e.ledger.SetLastPublisherListLoad(e.now())
		e.saveLedger()
	} else {
		e.log.Error("failed to save publisher list", "result", result)
	}
	e.RefreshPublishersList(!result.OK())
}
