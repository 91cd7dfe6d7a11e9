package publisher

import "github.com/roach88/rewards/internal/model"

// SetExclude changes a publisher's exclusion state and raises
// OnExcludedSitesChanged. Unknown publishers are created so that a site
// can be excluded before any attention has been recorded for it.
func (t *Tracker) SetExclude(publisherID string, exclude model.ExcludeState) {
	if _, ok := t.setExclude(publisherID, exclude); ok {
		t.host.OnExcludedSitesChanged(publisherID)
	}
}

// SetPanelExclude is SetExclude issued from a window's panel: it also
// re-raises OnPublisherActivity for that window so the panel redraws.
func (t *Tracker) SetPanelExclude(publisherID string, exclude model.ExcludeState, windowID uint64) {
	info, ok := t.setExclude(publisherID, exclude)
	if !ok {
		return
	}
	t.host.OnExcludedSitesChanged(publisherID)
	t.host.OnPublisherActivity(model.ResultOK, &info, windowID)
}

func (t *Tracker) setExclude(publisherID string, exclude model.ExcludeState) (model.PublisherInfo, bool) {
	if publisherID == "" {
		return model.PublisherInfo{}, false
	}
	info, known := t.publishers[publisherID]
	if !known {
		info = model.PublisherInfo{
			ID:       publisherID,
			Name:     publisherID,
			Verified: t.IsVerified(publisherID),
		}
	}
	info.Excluded = exclude
	t.publishers[publisherID] = info

	t.log.Info("publisher exclusion changed", "publisher_id", publisherID, "excluded", exclude)

	t.reweigh()
	t.persist()
	info = t.publishers[publisherID]
	t.host.SavePublisherInfo(info, nil)
	return info, true
}

// RestorePublishers returns every excluded publisher to the default state.
func (t *Tracker) RestorePublishers() {
	restored := 0
	for id, info := range t.publishers {
		if info.Excluded != model.ExcludeExcluded {
			continue
		}
		info.Excluded = model.ExcludeDefault
		t.publishers[id] = info
		t.host.SavePublisherInfo(info, nil)
		restored++
	}
	if restored == 0 {
		return
	}
	t.log.Info("excluded publishers restored", "count", restored)
	t.reweigh()
	t.persist()
	t.host.OnExcludedSitesChanged(AllPublishers)
}

// NumExcludedSites counts publishers currently excluded.
func (t *Tracker) NumExcludedSites() uint32 {
	var n uint32
	for _, info := range t.publishers {
		if info.Excluded == model.ExcludeExcluded {
			n++
		}
	}
	return n
}
