package media

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/roach88/rewards/internal/model"
)

const (
	twitchProvider  = "twitch"
	twitchKeyPrefix = "twitch_"
	twitchIDPrefix  = "twitch#author:"

	// TwitchMinuteWatched is the player's once-a-minute heartbeat.
	TwitchMinuteWatched = "minute-watched"
	// TwitchBufferEmpty reports a stall; it earns no attention.
	TwitchBufferEmpty = "buffer-empty"
)

// TwitchEvent is one tracking event from the player's post data.
type TwitchEvent struct {
	Event   string
	Channel string
}

// Duration is the attention the event is worth in seconds.
func (e TwitchEvent) Duration() uint64 {
	if e.Event == TwitchMinuteWatched {
		return 60
	}
	return 0
}

type twitchPayload struct {
	Event      string `json:"event"`
	Properties struct {
		Channel string `json:"channel"`
	} `json:"properties"`
}

// TwitchKey is the media key for a channel.
func TwitchKey(channel string) string {
	return twitchKeyPrefix + strings.ToLower(channel)
}

// ParseTwitchEvents decodes a tracking POST body. The body is a form with a
// data field holding base64 JSON: either one event object or an array.
// Events other than minute-watched and buffer-empty, and events without a
// channel, are dropped.
func ParseTwitchEvents(postData string) ([]TwitchEvent, error) {
	form, err := url.ParseQuery(postData)
	if err != nil {
		return nil, fmt.Errorf("parse post data: %w", err)
	}
	data := form.Get("data")
	if data == "" {
		return nil, fmt.Errorf("post data has no data field")
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("decode post data: %w", err)
		}
	}

	var payloads []twitchPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		var single twitchPayload
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("decode twitch events: %w", err)
		}
		payloads = []twitchPayload{single}
	}

	var out []TwitchEvent
	for _, p := range payloads {
		if p.Event != TwitchMinuteWatched && p.Event != TwitchBufferEmpty {
			continue
		}
		if p.Properties.Channel == "" {
			continue
		}
		out = append(out, TwitchEvent{Event: p.Event, Channel: strings.ToLower(p.Properties.Channel)})
	}
	return out, nil
}

// TwitchChannel extracts the channel from a twitch.tv page URL.
func TwitchChannel(rawURL string) string {
	if !onTwitch(rawURL) {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segment, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	switch segment {
	case "", "directory", "videos", "settings", "subscriptions", "inventory":
		return ""
	}
	return strings.ToLower(segment)
}

func twitchVisit(channel string, tab uint32) model.VisitData {
	id := twitchIDPrefix + channel
	return model.VisitData{
		TabID:      tab,
		Domain:     id,
		TLD:        id,
		URL:        "https://www.twitch.tv/" + channel,
		Name:       channel,
		Provider:   twitchProvider,
		FaviconURL: "https://www.twitch.tv/favicon.ico",
	}
}
