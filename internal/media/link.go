package media

import (
	"net/url"
	"strings"
)

// LinkType names a supported media provider.
type LinkType string

const (
	LinkNone    LinkType = ""
	LinkYouTube LinkType = "youtube"
	LinkTwitch  LinkType = "twitch"
)

// GetLinkType classifies a request by the player telemetry endpoint it
// targets. Twitch endpoints are only attributed when the page is on
// twitch.tv, since the CDN also serves embeds elsewhere.
func GetLinkType(rawURL, firstPartyURL, referrer string) LinkType {
	u, err := url.Parse(rawURL)
	if err != nil {
		return LinkNone
	}
	hostname := strings.ToLower(u.Hostname())

	switch {
	case isYouTubeHost(hostname) && u.Path == "/api/stats/watchtime":
		return LinkYouTube
	case isTwitchTelemetry(hostname, u.Path) && (onTwitch(firstPartyURL) || onTwitch(referrer)):
		return LinkTwitch
	}
	return LinkNone
}

func isYouTubeHost(hostname string) bool {
	return hostname == "youtube.com" || strings.HasSuffix(hostname, ".youtube.com")
}

func isTwitchTelemetry(hostname, path string) bool {
	if hostname == "ttvnw.net" || strings.HasSuffix(hostname, ".ttvnw.net") {
		return true
	}
	switch hostname {
	case "spade.twitch.tv", "trk.twitch.tv":
		return path == "/" || path == "" || strings.HasPrefix(path, "/track")
	}
	return false
}

func onTwitch(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	hostname := strings.ToLower(u.Hostname())
	return hostname == "twitch.tv" || strings.HasSuffix(hostname, ".twitch.tv")
}
