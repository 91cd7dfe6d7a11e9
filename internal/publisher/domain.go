package publisher

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/roach88/rewards/internal/model"
)

// TopLevelDomain returns the registrable domain of hostname (the public
// suffix plus one label), which is the publisher id for ordinary sites.
func TopLevelDomain(hostname string) (string, error) {
	hostname = strings.TrimSuffix(strings.ToLower(hostname), ".")
	if hostname == "" {
		return "", fmt.Errorf("empty hostname")
	}
	tld, err := publicsuffix.EffectiveTLDPlusOne(hostname)
	if err != nil {
		return "", fmt.Errorf("top level domain of %q: %w", hostname, err)
	}
	return tld, nil
}

// VisitFromURL builds the VisitData for a page load in tab.
func VisitFromURL(tab uint32, rawURL string) (model.VisitData, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return model.VisitData{}, fmt.Errorf("parse visit url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return model.VisitData{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	hostname := u.Hostname()
	tld, err := TopLevelDomain(hostname)
	if err != nil {
		return model.VisitData{}, err
	}
	origin := u.Scheme + "://" + u.Host
	return model.VisitData{
		TabID:      tab,
		Domain:     hostname,
		TLD:        tld,
		Path:       u.EscapedPath(),
		URL:        origin,
		Name:       tld,
		FaviconURL: origin + "/favicon.ico",
	}, nil
}
