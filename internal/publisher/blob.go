package publisher

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/rewards/internal/codec"
	"github.com/roach88/rewards/internal/model"
)

// StateVersion is the publisher-state blob version written by Encode.
const StateVersion = 1

// ListVersion is the publisher-list blob version written by
// ApplyPublisherList.
const ListVersion = 1

// ErrMalformed wraps every decode failure of either publisher blob.
var ErrMalformed = errors.New("publisher: malformed publisher state")

type stateDoc struct {
	Publishers []model.PublisherInfo          `json:"publishers"`
	Reports    map[string]model.BalanceReport `json:"balance_reports"`
}

type listDoc struct {
	Entries []ListEntry `json:"entries"`
}

// Encode renders the publisher state as a canonical, versioned blob.
func (t *Tracker) Encode() (string, error) {
	doc := stateDoc{
		Publishers: t.Publishers(),
		Reports:    t.reports,
	}
	blob, err := codec.Seal(StateVersion, doc)
	if err != nil {
		return "", fmt.Errorf("encode publisher state: %w", err)
	}
	return blob, nil
}

// LoadState replaces the tracker's records with the decoded blob. On
// failure the tracker is left untouched.
func (t *Tracker) LoadState(blob string) error {
	var doc stateDoc
	if _, err := codec.Open(blob, StateVersion, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	publishers := make(map[string]model.PublisherInfo, len(doc.Publishers))
	for _, info := range doc.Publishers {
		if info.ID == "" {
			return fmt.Errorf("%w: publisher with empty id", ErrMalformed)
		}
		if _, dup := publishers[info.ID]; dup {
			return fmt.Errorf("%w: duplicate publisher %s", ErrMalformed, info.ID)
		}
		if info.Excluded == "" {
			info.Excluded = model.ExcludeDefault
		}
		publishers[info.ID] = info
	}

	t.publishers = publishers
	t.reports = doc.Reports
	if t.reports == nil {
		t.reports = make(map[string]model.BalanceReport)
	}
	t.reweigh()
	return nil
}

// LoadPublisherList replaces the verified registry with a blob previously
// produced by ApplyPublisherList.
func (t *Tracker) LoadPublisherList(blob string) error {
	var doc listDoc
	if _, err := codec.Open(blob, ListVersion, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	t.setRegistry(doc.Entries)
	return nil
}

// ApplyPublisherList installs a freshly downloaded server list, refreshes
// the verified flag of every known publisher, and returns the blob to
// persist.
func (t *Tracker) ApplyPublisherList(body string) (string, error) {
	entries, err := ParseServerList(body)
	if err != nil {
		return "", err
	}
	t.setRegistry(entries)

	changed := false
	for id, info := range t.publishers {
		verified := t.IsVerified(id)
		if info.Verified != verified {
			info.Verified = verified
			t.publishers[id] = info
			changed = true
		}
	}
	if changed {
		t.reweigh()
		t.persist()
	}

	sorted := append([]ListEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	blob, err := codec.Seal(ListVersion, listDoc{Entries: sorted})
	if err != nil {
		return "", fmt.Errorf("encode publisher list: %w", err)
	}
	return blob, nil
}

func (t *Tracker) setRegistry(entries []ListEntry) {
	registry := make(map[string]ListEntry, len(entries))
	for _, e := range entries {
		registry[e.ID] = e
	}
	t.registry = registry
}
