package testutil

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
)

// PendingRequest is a LoadURL call the test has not answered yet.
type PendingRequest struct {
	Request host.Request
	respond func(host.Response)
	done    bool
}

// Done reports whether the request has been answered.
func (p *PendingRequest) Done() bool { return p.done }

// FakeTimer records one SetTimer call.
type FakeTimer struct {
	ID    host.TimerID
	Delay uint64
}

// Event records one notification the engine raised.
type Event struct {
	Name      string
	Result    model.Result
	ViewingID string
	Category  model.Category
	Probi     string
	Grant     model.Grant
	Grants    []model.Grant
	Balance   decimal.Decimal
	Info      *model.PublisherInfo
	WindowID  uint64
	Publisher string
	Image     string
	Hint      string
	Props     *model.WalletProperties
	Donations []model.RecurringDonation
	Report    model.BalanceReport
	Month     time.Month
	Year      int
}

// Notification names recorded in FakeHost.Events.
const (
	EventWalletInitialized  = "wallet_initialized"
	EventWalletProperties   = "wallet_properties"
	EventGrant              = "grant"
	EventGrantCaptcha       = "grant_captcha"
	EventGrantFinish        = "grant_finish"
	EventRecoverWallet      = "recover_wallet"
	EventReconcileComplete  = "reconcile_complete"
	EventPublisherActivity  = "publisher_activity"
	EventExcludedSites      = "excluded_sites_changed"
	EventRecurringDonations = "recurring_donations_updated"
	EventBalanceReport      = "balance_report"
)

// FakeHost is an in-memory host.Client for engine tests.
//
// Storage and record calls complete synchronously. LoadURL calls are
// parked until the test answers them with Respond, in any order the test
// likes. Timers never fire on their own; tests call the engine's OnTimer
// with an id taken from Timers.
//
// FakeHost is not safe for concurrent use.
type FakeHost struct {
	Clock *FakeClock
	GUIDs *FixedGUIDs

	Blobs      map[string]string
	LoadFails  map[string]model.Result
	SaveFails  map[string]model.Result
	SaveCounts map[string]int

	Publishers    map[string]model.PublisherInfo
	Media         map[string]string
	Contributions []model.ContributionInfo
	Recurring     map[string]model.RecurringDonation
	RemoveResult  model.Result

	Requests []*PendingRequest
	Favicons []string
	Timers   []FakeTimer
	Events   []Event

	nextTimer host.TimerID
}

var _ host.Client = (*FakeHost)(nil)

// NewFakeHost creates an empty host whose clock reads now.
func NewFakeHost(now uint64) *FakeHost {
	return &FakeHost{
		Clock:        NewFakeClock(now),
		GUIDs:        NewFixedGUIDs("guid"),
		Blobs:        make(map[string]string),
		LoadFails:    make(map[string]model.Result),
		SaveFails:    make(map[string]model.Result),
		SaveCounts:   make(map[string]int),
		Publishers:   make(map[string]model.PublisherInfo),
		Media:        make(map[string]string),
		Recurring:    make(map[string]model.RecurringDonation),
		RemoveResult: model.ResultOK,
	}
}

func (h *FakeHost) load(name string, cb host.BlobCallback) {
	if r, ok := h.LoadFails[name]; ok {
		cb(r, "")
		return
	}
	blob, ok := h.Blobs[name]
	if !ok {
		cb(model.ResultNotFound, "")
		return
	}
	cb(model.ResultOK, blob)
}

func (h *FakeHost) save(name, blob string, cb host.ResultCallback) {
	h.SaveCounts[name]++
	if r, ok := h.SaveFails[name]; ok {
		if cb != nil {
			cb(r)
		}
		return
	}
	h.Blobs[name] = blob
	if cb != nil {
		cb(model.ResultOK)
	}
}

func (h *FakeHost) LoadLedgerState(cb host.BlobCallback) { h.load(host.BlobLedgerState, cb) }

func (h *FakeHost) SaveLedgerState(blob string, cb host.ResultCallback) {
	h.save(host.BlobLedgerState, blob, cb)
}

func (h *FakeHost) LoadPublisherState(cb host.BlobCallback) { h.load(host.BlobPublisherState, cb) }

func (h *FakeHost) SavePublisherState(blob string, cb host.ResultCallback) {
	h.save(host.BlobPublisherState, blob, cb)
}

func (h *FakeHost) LoadPublisherList(cb host.BlobCallback) { h.load(host.BlobPublisherList, cb) }

func (h *FakeHost) SavePublisherList(blob string, cb host.ResultCallback) {
	h.save(host.BlobPublisherList, blob, cb)
}

func (h *FakeHost) SavePublisherInfo(info model.PublisherInfo, cb func(model.Result, model.PublisherInfo)) {
	h.Publishers[info.ID] = info
	if cb != nil {
		cb(model.ResultOK, info)
	}
}

func (h *FakeHost) LoadPublisherInfo(filter model.PublisherFilter, cb func(model.Result, model.PublisherInfo)) {
	info, ok := h.Publishers[filter.ID]
	if !ok || !filter.Matches(info) {
		cb(model.ResultNotFound, model.PublisherInfo{})
		return
	}
	cb(model.ResultOK, info)
}

func (h *FakeHost) LoadPublisherInfoList(start, limit uint32, filter model.PublisherFilter, cb func([]model.PublisherInfo, uint32)) {
	var all []model.PublisherInfo
	for _, info := range h.Publishers {
		if filter.Matches(info) {
			all = append(all, info)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if int(start) >= len(all) {
		cb(nil, 0)
		return
	}
	end := len(all)
	if limit > 0 && int(start+limit) < end {
		end = int(start + limit)
	}
	next := uint32(0)
	if end < len(all) {
		next = uint32(end)
	}
	cb(all[start:end], next)
}

func (h *FakeHost) LoadMediaPublisherInfo(mediaKey string, cb func(model.Result, model.PublisherInfo)) {
	id, ok := h.Media[mediaKey]
	if !ok {
		cb(model.ResultNotFound, model.PublisherInfo{})
		return
	}
	info, ok := h.Publishers[id]
	if !ok {
		info = model.PublisherInfo{ID: id}
	}
	cb(model.ResultOK, info)
}

func (h *FakeHost) SaveMediaPublisherInfo(mediaKey, publisherID string) {
	h.Media[mediaKey] = publisherID
}

func (h *FakeHost) SaveContributionInfo(info model.ContributionInfo, cb host.ResultCallback) {
	h.Contributions = append(h.Contributions, info)
	if cb != nil {
		cb(model.ResultOK)
	}
}

func (h *FakeHost) SaveRecurringDonation(d model.RecurringDonation, cb host.ResultCallback) {
	h.Recurring[d.PublisherID] = d
	if cb != nil {
		cb(model.ResultOK)
	}
}

func (h *FakeHost) RemoveRecurring(publisherID string, cb host.ResultCallback) {
	if h.RemoveResult.OK() {
		delete(h.Recurring, publisherID)
	}
	if cb != nil {
		cb(h.RemoveResult)
	}
}

func (h *FakeHost) LoadRecurringDonations(cb func([]model.RecurringDonation)) {
	out := make([]model.RecurringDonation, 0, len(h.Recurring))
	for _, d := range h.Recurring {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublisherID < out[j].PublisherID })
	cb(out)
}

// LoadURL parks the request until the test calls Respond.
func (h *FakeHost) LoadURL(req host.Request, cb func(host.Response)) {
	h.Requests = append(h.Requests, &PendingRequest{Request: req, respond: cb})
}

func (h *FakeHost) FetchFavicon(u, key string, cb func(bool, string)) {
	h.Favicons = append(h.Favicons, u)
	if cb != nil {
		cb(true, u)
	}
}

func (h *FakeHost) GenerateGUID() string { return h.GUIDs.Generate() }

func (h *FakeHost) URIEncode(value string) string { return url.QueryEscape(value) }

func (h *FakeHost) SetTimer(delay uint64) host.TimerID {
	h.nextTimer++
	h.Timers = append(h.Timers, FakeTimer{ID: h.nextTimer, Delay: delay})
	return h.nextTimer
}

func (h *FakeHost) Now() time.Time { return h.Clock.Now() }

// Pending returns the unanswered requests whose URL contains substr.
func (h *FakeHost) Pending(substr string) []*PendingRequest {
	var out []*PendingRequest
	for _, p := range h.Requests {
		if !p.done && strings.Contains(p.Request.URL, substr) {
			out = append(out, p)
		}
	}
	return out
}

// Respond answers the oldest unanswered request whose URL contains
// substr.
func (h *FakeHost) Respond(substr string, resp host.Response) error {
	pending := h.Pending(substr)
	if len(pending) == 0 {
		return fmt.Errorf("no pending request matching %q", substr)
	}
	return h.RespondTo(pending[0], resp)
}

// RespondTo answers a specific request.
func (h *FakeHost) RespondTo(p *PendingRequest, resp host.Response) error {
	if p.done {
		return fmt.Errorf("request to %s already answered", p.Request.URL)
	}
	p.done = true
	p.respond(resp)
	return nil
}

// LastTimer returns the most recently armed timer.
func (h *FakeHost) LastTimer() (FakeTimer, bool) {
	if len(h.Timers) == 0 {
		return FakeTimer{}, false
	}
	return h.Timers[len(h.Timers)-1], true
}

// EventsNamed returns the recorded notifications with the given name.
func (h *FakeHost) EventsNamed(name string) []Event {
	var out []Event
	for _, e := range h.Events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (h *FakeHost) record(e Event) { h.Events = append(h.Events, e) }

func (h *FakeHost) OnWalletInitialized(result model.Result) {
	h.record(Event{Name: EventWalletInitialized, Result: result})
}

func (h *FakeHost) OnWalletProperties(result model.Result, props *model.WalletProperties) {
	h.record(Event{Name: EventWalletProperties, Result: result, Props: props})
}

func (h *FakeHost) OnGrant(result model.Result, grant model.Grant) {
	h.record(Event{Name: EventGrant, Result: result, Grant: grant})
}

func (h *FakeHost) OnGrantCaptcha(image, hint string) {
	h.record(Event{Name: EventGrantCaptcha, Image: image, Hint: hint})
}

func (h *FakeHost) OnGrantFinish(result model.Result, grant model.Grant) {
	h.record(Event{Name: EventGrantFinish, Result: result, Grant: grant})
}

func (h *FakeHost) OnRecoverWallet(result model.Result, balance decimal.Decimal, grants []model.Grant) {
	h.record(Event{Name: EventRecoverWallet, Result: result, Balance: balance, Grants: grants})
}

func (h *FakeHost) OnReconcileComplete(result model.Result, viewingID string, category model.Category, probi string) {
	h.record(Event{Name: EventReconcileComplete, Result: result, ViewingID: viewingID, Category: category, Probi: probi})
}

func (h *FakeHost) OnPublisherActivity(result model.Result, info *model.PublisherInfo, windowID uint64) {
	h.record(Event{Name: EventPublisherActivity, Result: result, Info: info, WindowID: windowID})
}

func (h *FakeHost) OnExcludedSitesChanged(publisherID string) {
	h.record(Event{Name: EventExcludedSites, Publisher: publisherID})
}

func (h *FakeHost) OnRecurringDonationUpdated(donations []model.RecurringDonation) {
	h.record(Event{Name: EventRecurringDonations, Donations: donations})
}

func (h *FakeHost) OnBalanceReport(month time.Month, year int, report model.BalanceReport) {
	h.record(Event{Name: EventBalanceReport, Report: report, Month: month, Year: year})
}
