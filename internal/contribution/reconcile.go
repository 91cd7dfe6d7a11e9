package contribution

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/state"
)

type reconcileRequest struct {
	ViewingID  string               `json:"viewingId"`
	Category   model.Category       `json:"category"`
	Amount     decimal.Decimal      `json:"amount"`
	Currency   string               `json:"currency"`
	Directions []reconcileDirection `json:"directions"`
}

type reconcileDirection struct {
	PublisherKey string          `json:"publisherKey"`
	Weight       decimal.Decimal `json:"weight"`
	Currency     string          `json:"currency"`
}

type reconcileResponse struct {
	Probi string `json:"probi"`
}

// StartReconcile begins a contribution. publishers are weighted by
// attention share; directions carry explicit weights and are appended
// after them.
//
// The request is rejected without any state change if viewingID is
// already active, if an auto-contribution is already running and category
// is AUTO_CONTRIBUTE, or if the combined directions weigh nothing.
func (e *Engine) StartReconcile(viewingID string, category model.Category, publishers []model.PublisherInfo, directions []model.Direction) error {
	if viewingID == "" || !category.Valid() {
		return &Error{
			Code:      ErrCodeInvalidRequest,
			Message:   "reconcile needs a viewing id and a known category",
			ViewingID: viewingID,
			Category:  category,
		}
	}
	if e.ledger.ReconcileExists(viewingID) {
		return &Error{
			Code:      ErrCodeAlreadyInProgress,
			Message:   "viewing id already has an active reconcile",
			ViewingID: viewingID,
			Category:  category,
		}
	}
	if category == model.CategoryAutoContribute && e.ledger.HasActiveCategory(category) {
		return &Error{
			Code:      ErrCodeAlreadyInProgress,
			Message:   "an auto-contribution is already running",
			ViewingID: viewingID,
			Category:  category,
		}
	}

	dirs := positive(append(Winners(publishers), directions...))
	total := totalWeight(dirs)
	if !total.IsPositive() {
		return &Error{
			Code:      ErrCodeZeroWeight,
			Message:   "contribution has no weight",
			ViewingID: viewingID,
			Category:  category,
		}
	}

	amount := total
	if category == model.CategoryAutoContribute {
		amount = e.ledger.Settings().ContributionAmount
	}

	rec := state.ReconcileRecord{
		ViewingID:  viewingID,
		Category:   category,
		Directions: dirs,
		Amount:     amount,
		Currency:   dirs[0].Currency,
		Step:       state.StepInitiated,
		CreatedAt:  e.now(),
	}
	if err := e.ledger.AddReconcile(rec); err != nil {
		return &Error{
			Code:      ErrCodeAlreadyInProgress,
			Message:   err.Error(),
			ViewingID: viewingID,
			Category:  category,
		}
	}
	rec.Step = state.StepDirectionsComputed
	if err := e.ledger.UpdateReconcile(rec); err != nil {
		return fmt.Errorf("reconcile %s: %w", viewingID, err)
	}

	e.log.Info("reconcile started",
		"viewing_id", viewingID,
		"category", category,
		"directions", len(dirs),
		"amount", amount.String())
	e.send(viewingID)
	return nil
}

// send moves the record to REQUEST_SENT, persists it, and posts it to the
// ledger server.
func (e *Engine) send(viewingID string) {
	rec, ok := e.ledger.Reconcile(viewingID)
	if !ok {
		return
	}
	rec.Step = state.StepRequestSent
	if rec.RetryStep == "" {
		rec.RetryStep = state.StepRequestSent
	}
	if err := e.ledger.UpdateReconcile(rec); err != nil {
		e.log.Error("update reconcile", "viewing_id", viewingID, "error", err)
		return
	}
	e.persist()

	body := reconcileRequest{
		ViewingID: rec.ViewingID,
		Category:  rec.Category,
		Amount:    rec.Amount,
		Currency:  rec.Currency,
	}
	for _, d := range rec.Directions {
		body.Directions = append(body.Directions, reconcileDirection{
			PublisherKey: d.PublisherID,
			Weight:       d.Weight,
			Currency:     d.Currency,
		})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		e.log.Error("encode reconcile request", "viewing_id", viewingID, "error", err)
		e.fail(rec, model.ResultLedgerError)
		return
	}

	e.attempts[viewingID]++
	attempt := e.attempts[viewingID]
	e.host.LoadURL(host.Request{
		URL:         fmt.Sprintf("%s/v2/reconcile/%s", e.ledgerURL, e.ledger.PaymentID()),
		Body:        string(payload),
		ContentType: "application/json; charset=utf-8",
		Method:      host.MethodPost,
	}, func(resp host.Response) {
		e.onReconcileResponse(viewingID, attempt, resp)
	})
}

func (e *Engine) onReconcileResponse(viewingID string, attempt uint64, resp host.Response) {
	e.log.Debug("response",
		"func", "reconcile",
		"ok", resp.OK(),
		"response", resp.String())

	if e.attempts[viewingID] != attempt {
		e.log.Debug("dropping stale reconcile response", "viewing_id", viewingID, "attempt", attempt)
		return
	}
	rec, ok := e.ledger.Reconcile(viewingID)
	if !ok {
		return
	}

	switch {
	case resp.OK():
		var out reconcileResponse
		if err := json.Unmarshal([]byte(resp.Body), &out); err != nil {
			e.log.Error("decode reconcile response", "viewing_id", viewingID, "error", err)
			e.fail(rec, model.ResultLedgerError)
			return
		}
		probi, err := decimal.NewFromString(out.Probi)
		if err != nil {
			e.log.Error("decode reconcile probi", "viewing_id", viewingID, "probi", out.Probi, "error", err)
			e.fail(rec, model.ResultLedgerError)
			return
		}
		e.complete(rec, probi)
	case resp.Rejected():
		e.log.Error("reconcile rejected", "viewing_id", viewingID, "status", resp.Status)
		e.fail(rec, model.ResultLedgerError)
	default:
		e.scheduleRetry(rec)
	}
}

// complete settles a successful reconcile.
func (e *Engine) complete(rec state.ReconcileRecord, probi decimal.Decimal) {
	now := e.host.Now().UTC()
	e.OnReconcileCompleteSuccess(rec.ViewingID, rec.Category, probi, now.Month(), now.Year(), uint64(now.Unix()))
}

// OnReconcileCompleteSuccess records a settled contribution: one
// ContributionInfo per direction, sharing probi by weight, plus the
// balance-report item for the category. An auto-contribution also resets
// attention durations and advances the reconcile stamp. The record is then
// removed and the host notified.
func (e *Engine) OnReconcileCompleteSuccess(viewingID string, category model.Category, probi decimal.Decimal, month time.Month, year int, date uint64) {
	rec, ok := e.ledger.Reconcile(viewingID)
	if !ok {
		e.log.Warn("completion for unknown reconcile", "viewing_id", viewingID)
		return
	}

	total := rec.TotalWeight()
	for _, d := range rec.Directions {
		share := decimal.Zero
		if total.IsPositive() {
			share = probi.Mul(d.Weight).Div(total).Truncate(0)
		}
		e.host.SaveContributionInfo(model.ContributionInfo{
			Probi:       share,
			Month:       month,
			Year:        year,
			Date:        date,
			PublisherID: d.PublisherID,
			Category:    category,
		}, func(r model.Result) {
			if !r.OK() {
				e.log.Error("save contribution info", "viewing_id", viewingID, "publisher", d.PublisherID, "result", r)
			}
		})
	}
	e.publishers.SetBalanceReportItem(month, year, model.ReportTypeFor(category), probi)

	e.ledger.RemoveReconcile(viewingID)
	delete(e.attempts, viewingID)

	if category == model.CategoryAutoContribute {
		e.publishers.ResetDurations()
		e.resetReconcileStamp()
	}
	e.persist()

	e.log.Info("reconcile complete", "viewing_id", viewingID, "category", category, "probi", probi.String())
	e.sink.OnReconcileComplete(model.ResultOK, viewingID, category, probi.String())
	if category == model.CategoryAutoContribute {
		e.SetReconcileTimer()
	}
}

// scheduleRetry marks the record FAILED and arms a retry timer, or fails
// it for good once the retry table is exhausted.
func (e *Engine) scheduleRetry(rec state.ReconcileRecord) {
	level := rec.RetryLevel + 1
	delay, err := e.retry.Delay(rec.ViewingID, level)
	if err != nil {
		e.log.Error("reconcile failed", "viewing_id", rec.ViewingID, "error", err)
		e.fail(rec, model.ResultTransientIO)
		return
	}

	rec.Step = state.StepFailed
	if err := e.ledger.UpdateReconcile(rec); err != nil {
		e.log.Error("update reconcile", "viewing_id", rec.ViewingID, "error", err)
		return
	}
	e.ledger.AddReconcileStep(rec.ViewingID, state.StepRequestSent, level)
	e.persist()

	id := e.host.SetTimer(delay)
	e.retryTimers[id] = rec.ViewingID
	e.log.Warn("reconcile failed, will try again in",
		"viewing_id", rec.ViewingID,
		"seconds", delay,
		"retry_level", level)
}

// fail removes the record and surfaces result to the host.
func (e *Engine) fail(rec state.ReconcileRecord, result model.Result) {
	e.ledger.RemoveReconcile(rec.ViewingID)
	delete(e.attempts, rec.ViewingID)
	if rec.Category == model.CategoryAutoContribute {
		e.resetReconcileStamp()
	}
	e.persist()

	e.log.Error("reconcile abandoned", "viewing_id", rec.ViewingID, "category", rec.Category, "result", result)
	e.sink.OnReconcileComplete(result, rec.ViewingID, rec.Category, "")
	if rec.Category == model.CategoryAutoContribute {
		e.SetReconcileTimer()
	}
}
