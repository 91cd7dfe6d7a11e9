package publisher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/state"
	"github.com/roach88/rewards/internal/testutil"
)

const now = 1700000000

func newTracker(t *testing.T) (*Tracker, *state.Ledger, *testutil.FakeHost) {
	t.Helper()
	h := testutil.NewFakeHost(now)
	l := state.New()
	return New(h, l), l, h
}

func visit(tld string) model.VisitData {
	return model.VisitData{TabID: 1, Domain: "www." + tld, TLD: tld, URL: "https://www." + tld, Name: tld}
}

func TestSaveVisit_Accumulates(t *testing.T) {
	tr, _, h := newTracker(t)

	tr.SaveVisit(visit("a.com"), 10)
	tr.SaveVisit(visit("a.com"), 25)

	info, ok := tr.Publisher("a.com")
	require.True(t, ok)
	assert.Equal(t, uint64(35), info.Duration)
	assert.Equal(t, uint32(2), info.Visits)
	assert.Equal(t, model.ExcludeDefault, info.Excluded)

	// Mirrored to the host's records and persisted.
	assert.Equal(t, uint64(35), h.Publishers["a.com"].Duration)
	assert.Equal(t, 2, h.SaveCounts[host.BlobPublisherState])
}

func TestSaveVisit_EmptyTLDIgnored(t *testing.T) {
	tr, _, h := newTracker(t)
	tr.SaveVisit(model.VisitData{TabID: 1}, 10)
	assert.Empty(t, tr.Publishers())
	assert.Zero(t, h.SaveCounts[host.BlobPublisherState])
}

func TestSaveVisit_MediaRequiresVideos(t *testing.T) {
	tr, l, _ := newTracker(t)
	v := model.VisitData{TLD: "youtube#channel:abc", Provider: "youtube"}

	l.SetAllowVideos(false)
	tr.SaveVisit(v, 30)
	_, ok := tr.Publisher(v.TLD)
	assert.False(t, ok)

	l.SetAllowVideos(true)
	tr.SaveVisit(v, 30)
	info, ok := tr.Publisher(v.TLD)
	require.True(t, ok)
	assert.Equal(t, "youtube", info.Provider)
}

func TestSaveVisit_FetchesFaviconOnce(t *testing.T) {
	tr, _, h := newTracker(t)
	v := visit("a.com")
	v.FaviconURL = "https://www.a.com/favicon.ico"

	tr.SaveVisit(v, 1)
	tr.SaveVisit(v, 1)

	assert.Equal(t, []string{"https://www.a.com/favicon.ico"}, h.Favicons)
}

func TestEligibility_Scenario(t *testing.T) {
	tr, l, _ := newTracker(t)
	l.SetMinVisitDuration(30)
	l.SetAllowNonVerified(false)

	tr.SaveVisit(visit("a.com"), 10)
	info, _ := tr.Publisher("a.com")
	require.False(t, info.Verified)
	assert.False(t, tr.Eligible(info), "10s unverified publisher must not qualify")
	assert.Empty(t, tr.EligiblePublishers())

	l.SetAllowNonVerified(true)
	tr.SaveVisit(visit("a.com"), 20)
	info, _ = tr.Publisher("a.com")
	assert.Equal(t, uint64(30), info.Duration)
	assert.True(t, tr.Eligible(info))
	require.Len(t, tr.EligiblePublishers(), 1)
}

func TestEligibility_Rules(t *testing.T) {
	tr, l, _ := newTracker(t)
	l.SetMinVisitDuration(10)
	l.SetMinVisitCount(2)
	l.SetAllowNonVerified(false)

	base := model.PublisherInfo{ID: "a.com", Verified: true, Duration: 10, Visits: 2, Excluded: model.ExcludeDefault}
	assert.True(t, tr.Eligible(base))

	tooShort := base
	tooShort.Duration = 9
	assert.False(t, tr.Eligible(tooShort))

	tooFew := base
	tooFew.Visits = 1
	assert.False(t, tr.Eligible(tooFew))

	unverified := base
	unverified.Verified = false
	assert.False(t, tr.Eligible(unverified))

	excluded := base
	excluded.Excluded = model.ExcludeExcluded
	assert.False(t, tr.Eligible(excluded))

	included := base
	included.Excluded = model.ExcludeIncluded
	assert.True(t, tr.Eligible(included))
}

func TestReweigh_SharesAmongEligible(t *testing.T) {
	tr, l, _ := newTracker(t)
	l.SetMinVisitDuration(10)

	tr.SaveVisit(visit("a.com"), 30)
	tr.SaveVisit(visit("b.com"), 10)
	tr.SaveVisit(visit("c.com"), 5) // below threshold

	a, _ := tr.Publisher("a.com")
	b, _ := tr.Publisher("b.com")
	c, _ := tr.Publisher("c.com")

	assert.InDelta(t, 0.75, a.Weight, 1e-9)
	assert.Equal(t, uint32(75), a.Percent)
	assert.InDelta(t, 0.25, b.Weight, 1e-9)
	assert.Zero(t, c.Weight)
}

func TestResetDurations(t *testing.T) {
	tr, _, _ := newTracker(t)
	tr.SaveVisit(visit("a.com"), 30)

	tr.ResetDurations()

	info, ok := tr.Publisher("a.com")
	require.True(t, ok, "records are never deleted")
	assert.Zero(t, info.Duration)
	assert.Zero(t, info.Visits)
}

func TestGetPublisherActivityFromURL(t *testing.T) {
	tr, _, h := newTracker(t)

	tr.GetPublisherActivityFromURL(7, visit("new.com"))
	events := h.EventsNamed(testutil.EventPublisherActivity)
	require.Len(t, events, 1)
	assert.Equal(t, model.ResultOK, events[0].Result)
	assert.Equal(t, uint64(7), events[0].WindowID)
	require.NotNil(t, events[0].Info)
	assert.Equal(t, "new.com", events[0].Info.ID)
	assert.Zero(t, events[0].Info.Duration)

	tr.GetPublisherActivityFromURL(8, model.VisitData{})
	events = h.EventsNamed(testutil.EventPublisherActivity)
	require.Len(t, events, 2)
	assert.Equal(t, model.ResultNotFound, events[1].Result)
}

func TestStateRoundTrip(t *testing.T) {
	tr, l, h := newTracker(t)
	tr.SaveVisit(visit("a.com"), 30)
	tr.SetExclude("b.com", model.ExcludeExcluded)
	tr.SetBalanceReportItem(11, 2023, model.ReportGrant, mustDecimal(t, "10"))

	blob, err := tr.Encode()
	require.NoError(t, err)

	restored := New(h, l)
	require.NoError(t, restored.LoadState(blob))
	assert.Equal(t, tr.Publishers(), restored.Publishers())

	again, err := restored.Encode()
	require.NoError(t, err)
	assert.Equal(t, blob, again)
}

func TestLoadState_Malformed(t *testing.T) {
	tr, _, _ := newTracker(t)
	tr.SaveVisit(visit("a.com"), 30)

	for _, blob := range []string{
		"",
		"{",
		`{"version":7,"payload":{}}`,
		`{"version":1,"payload":{"publishers":[{"id":"x"},{"id":"x"}]}}`,
		`{"version":1,"payload":{"publishers":[{"id":""}]}}`,
	} {
		err := tr.LoadState(blob)
		assert.ErrorIs(t, err, ErrMalformed, "blob %q", blob)
	}

	_, ok := tr.Publisher("a.com")
	assert.True(t, ok, "failed loads leave the tracker untouched")
}
