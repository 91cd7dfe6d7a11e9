package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/rewards/internal/contribution"
	"github.com/roach88/rewards/internal/engine"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/publisher"
	"github.com/roach88/rewards/internal/testutil"
)

// Report is the final attention ledger of a run.
type Report struct {
	Scenario      string         `json:"scenario"`
	Publishers    []PublisherRow `json:"publishers"`
	Eligible      []string       `json:"eligible"`
	Winners       []WinnerRow    `json:"winners"`
	ExcludedCount uint32         `json:"excluded_count"`
}

// PublisherRow is one publisher record in a Report.
type PublisherRow struct {
	ID       string `json:"id"`
	Duration uint64 `json:"duration"`
	Visits   uint32 `json:"visits"`
	Percent  uint32 `json:"percent"`
	Excluded string `json:"excluded"`
	Verified bool   `json:"verified"`
}

// WinnerRow is the share a publisher would receive if the
// auto-contribution ran now.
type WinnerRow struct {
	Publisher string `json:"publisher"`
	Weight    string `json:"weight"`
}

// Result is the outcome of Run.
type Result struct {
	Report Report
	// Errors holds every failed assertion.
	Errors []error
}

// Passed reports whether every assertion held.
func (r *Result) Passed() bool {
	return len(r.Errors) == 0
}

// Run replays s against a fresh engine and evaluates its assertions.
// An error is returned only when a step cannot be applied; failed
// assertions are collected in the result.
func Run(s *Scenario) (*Result, error) {
	return RunWithLogger(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with engine logging sent to log.
func RunWithLogger(s *Scenario, log *slog.Logger) (*Result, error) {
	start := s.Start
	if start == 0 {
		start = DefaultStart
	}
	h := testutil.NewFakeHost(start)
	e := engine.New(h, engine.WithLogger(log))

	applySettings(e, s.Settings)
	if len(s.Verified) > 0 {
		if _, err := e.Tracker().ApplyPublisherList(registryBody(s.Verified)); err != nil {
			return nil, fmt.Errorf("verified registry: %w", err)
		}
	}

	for i, step := range s.Steps {
		if err := apply(e, h, step); err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Action, err)
		}
	}

	result := &Result{Report: buildReport(s.Name, e.Tracker())}
	for _, a := range s.Assertions {
		if err := check(result.Report, a); err != nil {
			result.Errors = append(result.Errors, err)
		}
	}
	return result, nil
}

func applySettings(e *engine.Engine, s Settings) {
	if s.MinVisitTime != nil {
		e.SetPublisherMinVisitTime(*s.MinVisitTime)
	}
	if s.MinVisits != nil {
		e.SetPublisherMinVisits(*s.MinVisits)
	}
	if s.AllowNonVerified != nil {
		e.SetPublisherAllowNonVerified(*s.AllowNonVerified)
	}
	if s.AllowVideos != nil {
		e.SetPublisherAllowVideos(*s.AllowVideos)
	}
}

// registryBody renders ids in the publisher server's list format.
func registryBody(ids []string) string {
	rows := make([][]any, len(ids))
	for i, id := range ids {
		rows[i] = []any{id, true, false, 0}
	}
	body, _ := json.Marshal(rows)
	return string(body)
}

func apply(e *engine.Engine, h *testutil.FakeHost, step Step) error {
	now := h.Clock.Unix()
	switch step.Action {
	case ActionLoad:
		visit, err := publisher.VisitFromURL(step.Tab, step.URL)
		if err != nil {
			return err
		}
		e.OnLoad(visit, now)
	case ActionUnload:
		e.OnUnload(step.Tab, now)
	case ActionShow:
		e.OnShow(step.Tab, now)
	case ActionHide:
		e.OnHide(step.Tab, now)
	case ActionForeground:
		e.OnForeground(step.Tab, now)
	case ActionBackground:
		e.OnBackground(step.Tab, now)
	case ActionAdvance:
		h.Clock.Advance(step.Seconds)
	case ActionExclude:
		e.SetPublisherExclude(step.Publisher, model.ExcludeState(step.State))
	case ActionRestore:
		e.RestorePublishers()
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}

func buildReport(name string, tracker *publisher.Tracker) Report {
	r := Report{
		Scenario:      name,
		Publishers:    []PublisherRow{},
		Eligible:      []string{},
		Winners:       []WinnerRow{},
		ExcludedCount: tracker.NumExcludedSites(),
	}
	for _, info := range tracker.Publishers() {
		r.Publishers = append(r.Publishers, PublisherRow{
			ID:       info.ID,
			Duration: info.Duration,
			Visits:   info.Visits,
			Percent:  info.Percent,
			Excluded: string(info.Excluded),
			Verified: info.Verified,
		})
	}
	eligible := tracker.EligiblePublishers()
	for _, info := range eligible {
		r.Eligible = append(r.Eligible, info.ID)
	}
	for _, d := range contribution.Winners(eligible) {
		r.Winners = append(r.Winners, WinnerRow{Publisher: d.PublisherID, Weight: d.Weight.String()})
	}
	return r
}
