package engine

import (
	"github.com/roach88/rewards/internal/media"
	"github.com/roach88/rewards/internal/model"
)

// OnLoad records the page now showing in visit.TabID. Reloading the same
// domain in a tab keeps the original visit.
func (e *Engine) OnLoad(visit model.VisitData, now uint64) {
	if visit.Domain == "" {
		return
	}
	if cur, ok := e.visits[visit.TabID]; ok && cur.Domain == visit.Domain {
		return
	}
	if e.tabShown && e.shownTab == visit.TabID {
		e.lastActive = now
		e.timing = true
	}
	e.visits[visit.TabID] = visit
}

// OnUnload closes the tab's visit, crediting any open attention.
func (e *Engine) OnUnload(tab uint32, now uint64) {
	e.OnHide(tab, now)
	delete(e.visits, tab)
}

// OnShow marks tab as the focused tab and starts timing attention.
func (e *Engine) OnShow(tab uint32, now uint64) {
	e.lastActive = now
	e.timing = true
	e.shownTab = tab
	e.tabShown = true
}

// OnHide credits the attention since the tab was shown to its publisher.
// Hiding a tab that is not the focused tab does nothing.
func (e *Engine) OnHide(tab uint32, now uint64) {
	if !e.tabShown || tab != e.shownTab {
		return
	}
	visit, ok := e.visits[tab]
	if !ok || !e.timing {
		return
	}
	var duration uint64
	if now > e.lastActive {
		duration = now - e.lastActive
	}
	e.timing = false
	e.tracker.SaveVisit(visit, duration)
}

// OnForeground resumes timing when the browser regains focus on the
// focused tab.
func (e *Engine) OnForeground(tab uint32, now uint64) {
	if !e.tabShown || e.shownTab != tab {
		return
	}
	e.OnShow(tab, now)
}

// OnBackground stops timing when the browser loses focus.
func (e *Engine) OnBackground(tab uint32, now uint64) {
	e.OnHide(tab, now)
}

// OnMediaStart is accepted for host compatibility. Media attention is
// measured from player telemetry instead.
func (e *Engine) OnMediaStart(tab uint32, now uint64) {}

// OnMediaStop is accepted for host compatibility.
func (e *Engine) OnMediaStop(tab uint32, now uint64) {}

// OnXHRLoad forwards a player request to media attribution.
func (e *Engine) OnXHRLoad(tab uint32, url string, parts map[string]string, firstPartyURL, referrer string) {
	e.media.OnXHRLoad(tab, url, parts, firstPartyURL, referrer)
}

// OnPostData forwards a player POST body to media attribution.
func (e *Engine) OnPostData(url, firstPartyURL, referrer, postData string, visit model.VisitData) {
	e.media.OnPostData(visit.TabID, url, firstPartyURL, referrer, postData)
}

// GetMediaActivityFromURL resolves the channel behind a media page.
func (e *Engine) GetMediaActivityFromURL(windowID uint64, visit model.VisitData, providerType string) {
	e.media.GetMediaActivityFromURL(windowID, visit, media.LinkType(providerType))
}

// ActiveVisits returns how many tabs hold a visit.
func (e *Engine) ActiveVisits() int {
	return len(e.visits)
}
