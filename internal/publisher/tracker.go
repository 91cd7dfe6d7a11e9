package publisher

import (
	"log/slog"
	"sort"
	"time"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/state"
)

// Host is the part of host.Client the tracker talks to.
type Host interface {
	host.Records
	SavePublisherState(blob string, cb host.ResultCallback)
	FetchFavicon(url, key string, cb func(ok bool, resolved string))
	Now() time.Time

	OnPublisherActivity(result model.Result, info *model.PublisherInfo, windowID uint64)
	OnExcludedSitesChanged(publisherID string)
	OnRecurringDonationUpdated(donations []model.RecurringDonation)
	OnBalanceReport(month time.Month, year int, report model.BalanceReport)
}

// SettingsSource supplies the current eligibility thresholds.
// *state.Ledger implements it.
type SettingsSource interface {
	Settings() state.Settings
}

// AllPublishers is passed to OnExcludedSitesChanged when a change touched
// every publisher at once.
const AllPublishers = "*"

// Tracker owns per-publisher attention records.
//
// Tracker is not safe for concurrent use; the engine calls it only from
// its event loop.
type Tracker struct {
	host     Host
	settings SettingsSource
	log      *slog.Logger

	publishers map[string]model.PublisherInfo
	reports    map[string]model.BalanceReport
	registry   map[string]ListEntry
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the tracker's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		t.log = l
	}
}

// New creates a tracker with no publishers.
func New(h Host, settings SettingsSource, opts ...Option) *Tracker {
	t := &Tracker{
		host:       h,
		settings:   settings,
		log:        slog.Default(),
		publishers: make(map[string]model.PublisherInfo),
		reports:    make(map[string]model.BalanceReport),
		registry:   make(map[string]ListEntry),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SaveVisit commits duration seconds of attention on visit to the
// publisher identified by visit.TLD, creating the record on first sight.
//
// Media visits (visit.Provider set) are dropped while videos are not
// allowed.
func (t *Tracker) SaveVisit(visit model.VisitData, duration uint64) {
	id := visit.TLD
	if id == "" {
		return
	}
	if visit.Provider != "" && !t.settings.Settings().AllowVideos {
		t.log.Debug("media visit ignored, videos not allowed", "publisher_id", id)
		return
	}

	info, known := t.publishers[id]
	if !known {
		info = t.newRecord(visit)
	}
	info.Duration += duration
	info.Visits++
	t.publishers[id] = info

	t.log.Debug("visit saved",
		"publisher_id", id,
		"duration", duration,
		"total", info.Duration,
		"visits", info.Visits)

	t.reweigh()
	t.persist()
	t.host.SavePublisherInfo(t.publishers[id], nil)
	if !known {
		t.fetchFavicon(t.publishers[id])
	}
}

func (t *Tracker) newRecord(visit model.VisitData) model.PublisherInfo {
	name := visit.Name
	if name == "" {
		name = visit.TLD
	}
	return model.PublisherInfo{
		ID:         visit.TLD,
		Name:       name,
		URL:        visit.URL,
		Provider:   visit.Provider,
		FaviconURL: visit.FaviconURL,
		Verified:   t.IsVerified(visit.TLD),
		Excluded:   model.ExcludeDefault,
	}
}

func (t *Tracker) fetchFavicon(info model.PublisherInfo) {
	if info.FaviconURL == "" {
		return
	}
	id := info.ID
	t.host.FetchFavicon(info.FaviconURL, "favicon:"+id, func(ok bool, resolved string) {
		if !ok {
			t.log.Debug("favicon fetch failed", "publisher_id", id)
			return
		}
		cur, exists := t.publishers[id]
		if !exists || cur.FaviconURL == resolved {
			return
		}
		cur.FaviconURL = resolved
		t.publishers[id] = cur
		t.persist()
		t.host.SavePublisherInfo(cur, nil)
	})
}

// Publisher returns the record for id.
func (t *Tracker) Publisher(id string) (model.PublisherInfo, bool) {
	info, ok := t.publishers[id]
	return info, ok
}

// Publishers returns every record ordered by id.
func (t *Tracker) Publishers() []model.PublisherInfo {
	out := make([]model.PublisherInfo, 0, len(t.publishers))
	for _, info := range t.publishers {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Eligible reports whether info qualifies for auto-contribution under the
// current settings: enough accumulated time, enough visits, verified or
// non-verified allowed, not excluded, and not a media publisher while
// videos are disallowed.
func (t *Tracker) Eligible(info model.PublisherInfo) bool {
	s := t.settings.Settings()
	switch {
	case info.Excluded == model.ExcludeExcluded:
		return false
	case info.Duration < s.MinVisitDuration:
		return false
	case info.Visits < s.MinVisitCount:
		return false
	case !info.Verified && !s.AllowNonVerified:
		return false
	case info.Provider != "" && !s.AllowVideos:
		return false
	}
	return true
}

// EligiblePublishers returns the publishers that qualify for
// auto-contribution, ordered by id.
func (t *Tracker) EligiblePublishers() []model.PublisherInfo {
	var out []model.PublisherInfo
	for _, info := range t.Publishers() {
		if t.Eligible(info) {
			out = append(out, info)
		}
	}
	return out
}

// Reweigh recomputes every publisher's share after a settings change.
func (t *Tracker) Reweigh() {
	t.reweigh()
	t.persist()
}

// reweigh sets Weight (fraction of eligible attention) and Percent on
// every record. Ineligible records weigh zero.
func (t *Tracker) reweigh() {
	var total uint64
	for _, info := range t.publishers {
		if t.Eligible(info) {
			total += info.Duration
		}
	}
	for id, info := range t.publishers {
		info.Weight, info.Percent = 0, 0
		if total > 0 && t.Eligible(info) {
			info.Weight = float64(info.Duration) / float64(total)
			info.Percent = uint32(info.Weight*100 + 0.5)
		}
		t.publishers[id] = info
	}
}

// ResetDurations clears accumulated attention once an auto-contribution
// has settled, starting the next period from zero.
func (t *Tracker) ResetDurations() {
	for id, info := range t.publishers {
		info.Duration = 0
		info.Visits = 0
		info.Weight = 0
		info.Percent = 0
		t.publishers[id] = info
	}
	t.persist()
}

// GetPublisherActivityFromURL resolves the publisher behind visit and
// raises OnPublisherActivity for windowID. Unknown publishers are created
// with no attention so the panel can show and exclude them.
func (t *Tracker) GetPublisherActivityFromURL(windowID uint64, visit model.VisitData) {
	if visit.TLD == "" {
		t.host.OnPublisherActivity(model.ResultNotFound, nil, windowID)
		return
	}
	info, known := t.publishers[visit.TLD]
	if !known {
		info = t.newRecord(visit)
		t.publishers[info.ID] = info
		t.persist()
		t.host.SavePublisherInfo(info, nil)
		t.fetchFavicon(info)
	}
	t.host.OnPublisherActivity(model.ResultOK, &info, windowID)
}

// GetPublisherInfoList pages through the host's publisher records.
func (t *Tracker) GetPublisherInfoList(start, limit uint32, filter model.PublisherFilter, cb func([]model.PublisherInfo, uint32)) {
	t.host.LoadPublisherInfoList(start, limit, filter, cb)
}

func (t *Tracker) persist() {
	blob, err := t.Encode()
	if err != nil {
		t.log.Error("encode publisher state", "error", err)
		return
	}
	t.host.SavePublisherState(blob, func(result model.Result) {
		if !result.OK() {
			t.log.Error("save publisher state failed", "result", result)
		}
	})
}
