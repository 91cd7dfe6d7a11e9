package media

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/roach88/rewards/internal/model"
)

const (
	youtubeProvider    = "youtube"
	youtubeKeyPrefix   = "youtube_"
	youtubeIDPrefix    = "youtube#channel:"
	youtubeWatchURL    = "https://www.youtube.com/watch?v="
	youtubeOEmbedURL   = "https://www.youtube.com/oembed?format=json&url="
	youtubeFaviconPath = "https://www.youtube.com/favicon.ico"
)

// YouTubeKey is the media key for a video id.
func YouTubeKey(docID string) string {
	return youtubeKeyPrefix + docID
}

// YouTubeDuration sums the watched segments of a watch-time ping. st and
// et are parallel comma-separated lists of segment start and end offsets
// in seconds; the total is rounded to whole seconds.
func YouTubeDuration(parts map[string]string) (uint64, error) {
	starts, err := parseFloats(parts["st"])
	if err != nil {
		return 0, fmt.Errorf("parse st: %w", err)
	}
	ends, err := parseFloats(parts["et"])
	if err != nil {
		return 0, fmt.Errorf("parse et: %w", err)
	}
	if len(starts) != len(ends) {
		return 0, fmt.Errorf("st has %d segments, et has %d", len(starts), len(ends))
	}
	var total float64
	for i := range starts {
		if d := ends[i] - starts[i]; d > 0 {
			total += d
		}
	}
	return uint64(math.Round(total)), nil
}

func parseFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// YouTubeVideoID extracts the v parameter of a watch page URL.
func YouTubeVideoID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !isYouTubeHost(strings.ToLower(u.Hostname())) {
		return ""
	}
	if u.Path != "/watch" {
		return ""
	}
	return u.Query().Get("v")
}

type oEmbed struct {
	AuthorName string `json:"author_name"`
	AuthorURL  string `json:"author_url"`
}

// channelVisit turns an oEmbed answer into the visit that credits the
// channel.
func channelVisit(body string, tab uint32) (model.VisitData, error) {
	var o oEmbed
	if err := json.Unmarshal([]byte(body), &o); err != nil {
		return model.VisitData{}, fmt.Errorf("decode oembed: %w", err)
	}
	channel := ""
	if u, err := url.Parse(o.AuthorURL); err == nil && u.Path != "" {
		channel = path.Base(strings.TrimSuffix(u.Path, "/"))
	}
	if channel == "" || channel == "." || channel == "/" {
		channel = o.AuthorName
	}
	if channel == "" {
		return model.VisitData{}, fmt.Errorf("oembed names no channel")
	}
	name := o.AuthorName
	if name == "" {
		name = channel
	}
	id := youtubeIDPrefix + channel
	return model.VisitData{
		TabID:      tab,
		Domain:     id,
		TLD:        id,
		URL:        o.AuthorURL,
		Name:       name,
		Provider:   youtubeProvider,
		FaviconURL: youtubeFaviconPath,
	}, nil
}
