package engine

import (
	"time"

	"github.com/roach88/rewards/internal/model"
)

func (e *Engine) SetPublisherExclude(publisherID string, exclude model.ExcludeState) {
	e.tracker.SetExclude(publisherID, exclude)
}

func (e *Engine) SetPublisherPanelExclude(publisherID string, exclude model.ExcludeState, windowID uint64) {
	e.tracker.SetPanelExclude(publisherID, exclude, windowID)
}

func (e *Engine) RestorePublishers() {
	e.tracker.RestorePublishers()
}

func (e *Engine) NumExcludedSites() uint32 {
	return e.tracker.NumExcludedSites()
}

// GetPublisherActivityFromURL resolves the publisher behind visit and
// raises OnPublisherActivity for windowID.
func (e *Engine) GetPublisherActivityFromURL(windowID uint64, visit model.VisitData) {
	e.tracker.GetPublisherActivityFromURL(windowID, visit)
}

// GetPublisherInfoList pages through the host's publisher records.
func (e *Engine) GetPublisherInfoList(start, limit uint32, filter model.PublisherFilter, cb func([]model.PublisherInfo, uint32)) {
	e.tracker.GetPublisherInfoList(start, limit, filter, cb)
}

func (e *Engine) BalanceReport(month time.Month, year int) (model.BalanceReport, bool) {
	return e.tracker.BalanceReport(month, year)
}

func (e *Engine) AllBalanceReports() map[string]model.BalanceReport {
	return e.tracker.AllBalanceReports()
}

func (e *Engine) SetBalanceReport(month time.Month, year int, report model.BalanceReport) {
	e.tracker.SetBalanceReport(month, year, report)
}
