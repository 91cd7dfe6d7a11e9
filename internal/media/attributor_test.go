package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/testutil"
)

type savedVisit struct {
	visit    model.VisitData
	duration uint64
}

type fakeVisits struct {
	saved    []savedVisit
	activity []model.VisitData
}

func (v *fakeVisits) SaveVisit(visit model.VisitData, duration uint64) {
	v.saved = append(v.saved, savedVisit{visit, duration})
}

func (v *fakeVisits) GetPublisherActivityFromURL(windowID uint64, visit model.VisitData) {
	v.activity = append(v.activity, visit)
}

const watchtime = "https://www.youtube.com/api/stats/watchtime"

const oembedBody = `{"author_name":"Some Channel","author_url":"https://www.youtube.com/user/somechannel"}`

func newAttributor() (*Attributor, *testutil.FakeHost, *fakeVisits) {
	h := testutil.NewFakeHost(1700000000)
	v := &fakeVisits{}
	return New(h, v), h, v
}

func TestOnXHRLoad_UnknownVideoUsesOEmbed(t *testing.T) {
	a, h, v := newAttributor()

	a.OnXHRLoad(1, watchtime, map[string]string{"docid": "vid1", "st": "0", "et": "30"}, "", "")
	a.OnXHRLoad(1, watchtime, map[string]string{"docid": "vid1", "st": "30", "et": "45"}, "", "")

	pending := h.Pending("/oembed")
	require.Len(t, pending, 1, "lookups of one video share a request")
	assert.Contains(t, pending[0].Request.URL, "url=https%3A%2F%2Fwww.youtube.com%2Fwatch%3Fv%3Dvid1")

	require.NoError(t, h.RespondTo(pending[0], host.Response{Status: 200, Body: oembedBody}))

	require.Len(t, v.saved, 2)
	assert.Equal(t, "youtube#channel:somechannel", v.saved[0].visit.TLD)
	assert.Equal(t, "Some Channel", v.saved[0].visit.Name)
	assert.Equal(t, "youtube", v.saved[0].visit.Provider)
	assert.Equal(t, uint64(30), v.saved[0].duration)
	assert.Equal(t, uint64(15), v.saved[1].duration)
	assert.Equal(t, "youtube#channel:somechannel", h.Media["youtube_vid1"])

	// The mapping is remembered; no second lookup.
	a.OnXHRLoad(1, watchtime, map[string]string{"docid": "vid1", "st": "0", "et": "5"}, "", "")
	assert.Len(t, h.Requests, 1)
	require.Len(t, v.saved, 3)
	assert.Equal(t, "youtube#channel:somechannel", v.saved[2].visit.TLD)
}

func TestOnXHRLoad_OEmbedFailureDropsVisit(t *testing.T) {
	a, h, v := newAttributor()

	a.OnXHRLoad(1, watchtime, map[string]string{"docid": "vid1", "st": "0", "et": "30"}, "", "")
	require.NoError(t, h.Respond("/oembed", host.Response{Status: 401}))

	assert.Empty(t, v.saved)
	assert.Empty(t, h.Media)
}

func TestOnXHRLoad_IgnoresOtherTraffic(t *testing.T) {
	a, h, v := newAttributor()

	a.OnXHRLoad(1, "https://example.com/api/stats/watchtime", map[string]string{"docid": "x", "st": "0", "et": "9"}, "", "")
	a.OnXHRLoad(1, watchtime, map[string]string{"st": "0", "et": "9"}, "", "")
	a.OnXHRLoad(1, watchtime, map[string]string{"docid": "x", "st": "0", "et": "0"}, "", "")

	assert.Empty(t, h.Requests)
	assert.Empty(t, v.saved)
}

func TestOnPostData_Twitch(t *testing.T) {
	a, h, v := newAttributor()
	post := twitchPost(t, `[{"event":"minute-watched","properties":{"channel":"streamer"}},{"event":"buffer-empty","properties":{"channel":"streamer"}}]`)

	a.OnPostData(2, "https://spade.twitch.tv/track", "https://www.twitch.tv/streamer", "", post)

	require.Len(t, v.saved, 1)
	assert.Equal(t, "twitch#author:streamer", v.saved[0].visit.TLD)
	assert.Equal(t, "twitch", v.saved[0].visit.Provider)
	assert.Equal(t, uint64(60), v.saved[0].duration)
	assert.Equal(t, uint32(2), v.saved[0].visit.TabID)
	assert.Equal(t, "twitch#author:streamer", h.Media["twitch_streamer"])
}

func TestGetMediaActivityFromURL_Known(t *testing.T) {
	a, h, v := newAttributor()
	h.Media["youtube_vid1"] = "youtube#channel:somechannel"
	h.Publishers["youtube#channel:somechannel"] = model.PublisherInfo{ID: "youtube#channel:somechannel", Name: "Some Channel"}

	a.GetMediaActivityFromURL(9, model.VisitData{URL: "https://www.youtube.com/watch?v=vid1"}, LinkYouTube)

	events := h.EventsNamed(testutil.EventPublisherActivity)
	require.Len(t, events, 1)
	assert.Equal(t, model.ResultOK, events[0].Result)
	assert.Equal(t, uint64(9), events[0].WindowID)
	assert.Equal(t, "Some Channel", events[0].Info.Name)
	assert.Empty(t, v.activity)
}

func TestGetMediaActivityFromURL_UnknownYouTube(t *testing.T) {
	a, h, v := newAttributor()

	a.GetMediaActivityFromURL(9, model.VisitData{URL: "https://www.youtube.com/watch?v=vid1"}, LinkYouTube)
	require.NoError(t, h.Respond("/oembed", host.Response{Status: 200, Body: oembedBody}))

	require.Len(t, v.activity, 1)
	assert.Equal(t, "youtube#channel:somechannel", v.activity[0].TLD)
}

func TestGetMediaActivityFromURL_UnknownYouTubeNotFound(t *testing.T) {
	a, h, _ := newAttributor()

	a.GetMediaActivityFromURL(9, model.VisitData{URL: "https://www.youtube.com/watch?v=vid1"}, LinkYouTube)
	require.NoError(t, h.Respond("/oembed", host.Response{Status: 404}))

	events := h.EventsNamed(testutil.EventPublisherActivity)
	require.Len(t, events, 1)
	assert.Equal(t, model.ResultNotFound, events[0].Result)
	assert.Nil(t, events[0].Info)
}

func TestGetMediaActivityFromURL_Twitch(t *testing.T) {
	a, h, v := newAttributor()

	a.GetMediaActivityFromURL(3, model.VisitData{URL: "https://www.twitch.tv", Path: "/streamer"}, LinkTwitch)

	require.Len(t, v.activity, 1)
	assert.Equal(t, "twitch#author:streamer", v.activity[0].TLD)
	assert.Equal(t, "twitch#author:streamer", h.Media["twitch_streamer"])
}

func TestGetMediaActivityFromURL_FallsBack(t *testing.T) {
	a, _, v := newAttributor()
	visit := model.VisitData{URL: "https://www.youtube.com", Path: "/feed/trending", TLD: "youtube.com"}

	a.GetMediaActivityFromURL(3, visit, LinkYouTube)
	a.GetMediaActivityFromURL(3, model.VisitData{TLD: "example.com"}, LinkNone)

	require.Len(t, v.activity, 2)
	assert.Equal(t, "youtube.com", v.activity[0].TLD)
	assert.Equal(t, "example.com", v.activity[1].TLD)
}
