package media

import (
	"log/slog"
	"net/url"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
)

// Host is the part of host.Client the attributor needs.
type Host interface {
	LoadURL(req host.Request, cb func(host.Response))
	URIEncode(value string) string
	LoadMediaPublisherInfo(mediaKey string, cb func(model.Result, model.PublisherInfo))
	SaveMediaPublisherInfo(mediaKey, publisherID string)
	OnPublisherActivity(result model.Result, info *model.PublisherInfo, windowID uint64)
}

// Visits is where resolved media attention goes. *publisher.Tracker
// implements it.
type Visits interface {
	SaveVisit(visit model.VisitData, duration uint64)
	GetPublisherActivityFromURL(windowID uint64, visit model.VisitData)
}

// Attributor resolves media pings to channel publishers.
//
// Attributor is not safe for concurrent use.
type Attributor struct {
	host   Host
	visits Visits
	log    *slog.Logger

	// lookups holds the continuations waiting on an in-flight oEmbed
	// request, keyed by media key.
	lookups map[string][]func(model.VisitData, bool)
}

// Option configures an Attributor.
type Option func(*Attributor)

// WithLogger sets the attributor's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Attributor) {
		a.log = l
	}
}

// New creates an attributor.
func New(h Host, visits Visits, opts ...Option) *Attributor {
	a := &Attributor{
		host:    h,
		visits:  visits,
		log:     slog.Default(),
		lookups: make(map[string][]func(model.VisitData, bool)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OnXHRLoad handles a player request the host observed. parts are the
// request's query parameters.
func (a *Attributor) OnXHRLoad(tab uint32, rawURL string, parts map[string]string, firstPartyURL, referrer string) {
	if GetLinkType(rawURL, firstPartyURL, referrer) != LinkYouTube {
		return
	}
	docID := parts["docid"]
	if docID == "" {
		a.log.Debug("youtube ping without docid", "url", rawURL)
		return
	}
	duration, err := YouTubeDuration(parts)
	if err != nil {
		a.log.Debug("youtube ping unreadable", "docid", docID, "error", err)
		return
	}
	if duration == 0 {
		return
	}
	a.resolveYouTube(tab, docID, func(visit model.VisitData, ok bool) {
		if ok {
			a.visits.SaveVisit(visit, duration)
		}
	})
}

// OnPostData handles a player POST body the host observed.
func (a *Attributor) OnPostData(tab uint32, rawURL, firstPartyURL, referrer, postData string) {
	if GetLinkType(rawURL, firstPartyURL, referrer) != LinkTwitch {
		return
	}
	events, err := ParseTwitchEvents(postData)
	if err != nil {
		a.log.Debug("twitch post data unreadable", "error", err)
		return
	}
	for _, ev := range events {
		duration := ev.Duration()
		if duration == 0 {
			continue
		}
		visit := twitchVisit(ev.Channel, tab)
		a.host.SaveMediaPublisherInfo(TwitchKey(ev.Channel), visit.TLD)
		a.visits.SaveVisit(visit, duration)
	}
}

// GetMediaActivityFromURL resolves the channel behind a media page and
// raises OnPublisherActivity for windowID. Pages that are not a video or
// channel fall back to ordinary publisher resolution.
func (a *Attributor) GetMediaActivityFromURL(windowID uint64, visit model.VisitData, provider LinkType) {
	page := pageURL(visit)
	switch provider {
	case LinkYouTube:
		docID := YouTubeVideoID(page)
		if docID == "" {
			break
		}
		a.activity(windowID, YouTubeKey(docID), func(cb func(model.VisitData, bool)) {
			a.resolveYouTube(visit.TabID, docID, cb)
		})
		return
	case LinkTwitch:
		channel := TwitchChannel(page)
		if channel == "" {
			break
		}
		key := TwitchKey(channel)
		a.activity(windowID, key, func(cb func(model.VisitData, bool)) {
			v := twitchVisit(channel, visit.TabID)
			a.host.SaveMediaPublisherInfo(key, v.TLD)
			cb(v, true)
		})
		return
	}
	a.visits.GetPublisherActivityFromURL(windowID, visit)
}

// activity reports a known media publisher, or resolves an unknown one
// and lets the tracker create it.
func (a *Attributor) activity(windowID uint64, key string, resolve func(func(model.VisitData, bool))) {
	a.host.LoadMediaPublisherInfo(key, func(result model.Result, info model.PublisherInfo) {
		if result.OK() {
			a.host.OnPublisherActivity(model.ResultOK, &info, windowID)
			return
		}
		resolve(func(v model.VisitData, ok bool) {
			if !ok {
				a.host.OnPublisherActivity(model.ResultNotFound, nil, windowID)
				return
			}
			a.visits.GetPublisherActivityFromURL(windowID, v)
		})
	})
}

// resolveYouTube maps a video id to its channel visit, using the stored
// media mapping when there is one and oEmbed otherwise. Concurrent
// lookups of the same video share one request.
func (a *Attributor) resolveYouTube(tab uint32, docID string, cb func(model.VisitData, bool)) {
	key := YouTubeKey(docID)
	a.host.LoadMediaPublisherInfo(key, func(result model.Result, info model.PublisherInfo) {
		if result.OK() && info.ID != "" {
			cb(model.VisitData{
				TabID:      tab,
				Domain:     info.ID,
				TLD:        info.ID,
				URL:        info.URL,
				Name:       info.Name,
				Provider:   youtubeProvider,
				FaviconURL: info.FaviconURL,
			}, true)
			return
		}

		waiting, inFlight := a.lookups[key]
		a.lookups[key] = append(waiting, cb)
		if inFlight {
			return
		}
		a.host.LoadURL(host.Request{
			URL:    youtubeOEmbedURL + a.host.URIEncode(youtubeWatchURL+docID),
			Method: host.MethodGet,
		}, func(resp host.Response) {
			a.onOEmbed(tab, key, resp)
		})
	})
}

func (a *Attributor) onOEmbed(tab uint32, key string, resp host.Response) {
	a.log.Debug("response",
		"func", "oembed",
		"ok", resp.OK(),
		"response", resp.String())

	waiting := a.lookups[key]
	delete(a.lookups, key)

	var visit model.VisitData
	ok := resp.OK()
	if ok {
		v, err := channelVisit(resp.Body, tab)
		if err != nil {
			a.log.Debug("oembed unreadable", "media_key", key, "error", err)
			ok = false
		} else {
			visit = v
			a.host.SaveMediaPublisherInfo(key, visit.TLD)
		}
	}
	for _, cb := range waiting {
		cb(visit, ok)
	}
}

// pageURL rebuilds the full page URL from a visit whose URL may hold only
// the origin.
func pageURL(visit model.VisitData) string {
	u, err := url.Parse(visit.URL)
	if err != nil {
		return visit.URL
	}
	if (u.Path == "" || u.Path == "/") && visit.Path != "" {
		if p, err := url.Parse(visit.Path); err == nil {
			return u.ResolveReference(p).String()
		}
	}
	return visit.URL
}
