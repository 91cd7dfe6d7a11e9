package publisher

import (
	"encoding/json"
	"fmt"
)

// ListEntry is one row of the verified-publisher registry.
type ListEntry struct {
	ID        string `json:"id"`
	Verified  bool   `json:"verified"`
	Excluded  bool   `json:"excluded"`
	Timestamp uint64 `json:"timestamp"`
}

// serverRow decodes the compact wire form of a registry row:
//
//	["example.com", true, false, 1700000000]
type serverRow ListEntry

func (r *serverRow) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) < 4 {
		return fmt.Errorf("registry row has %d fields, want 4", len(fields))
	}
	if err := json.Unmarshal(fields[0], &r.ID); err != nil {
		return fmt.Errorf("registry row id: %w", err)
	}
	if err := json.Unmarshal(fields[1], &r.Verified); err != nil {
		return fmt.Errorf("registry row verified: %w", err)
	}
	if err := json.Unmarshal(fields[2], &r.Excluded); err != nil {
		return fmt.Errorf("registry row excluded: %w", err)
	}
	if err := json.Unmarshal(fields[3], &r.Timestamp); err != nil {
		return fmt.Errorf("registry row timestamp: %w", err)
	}
	return nil
}

// ParseServerList decodes the publisher list as served by the publisher
// endpoint: a JSON array of [id, verified, excluded, timestamp] rows.
func ParseServerList(body string) ([]ListEntry, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: empty publisher list", ErrMalformed)
	}
	var rows []serverRow
	if err := json.Unmarshal([]byte(body), &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	out := make([]ListEntry, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			continue
		}
		out = append(out, ListEntry(r))
	}
	return out, nil
}

// IsVerified reports whether the registry lists id as verified.
func (t *Tracker) IsVerified(id string) bool {
	return t.registry[id].Verified
}

// RegistrySize returns the number of registry entries.
func (t *Tracker) RegistrySize() int {
	return len(t.registry)
}
