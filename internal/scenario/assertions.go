package scenario

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

func check(r Report, a Assertion) error {
	switch a.Type {
	case AssertPublisher:
		return checkPublisher(r, a)
	case AssertEligible:
		got := r.Eligible
		want := a.Publishers
		if want == nil {
			want = []string{}
		}
		if !slices.Equal(got, want) {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprint(want), Actual: fmt.Sprint(got)}
		}
	case AssertExcludedCount:
		if int(r.ExcludedCount) != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d excluded", a.Count),
				Actual:   fmt.Sprintf("%d excluded", r.ExcludedCount),
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func checkPublisher(r Report, a Assertion) error {
	idx := slices.IndexFunc(r.Publishers, func(p PublisherRow) bool { return p.ID == a.Publisher })
	if idx < 0 {
		return &AssertionError{Type: a.Type, Expected: "record for " + a.Publisher, Actual: "no such publisher"}
	}
	row := r.Publishers[idx]
	fields := map[string]any{
		"duration": row.Duration,
		"visits":   row.Visits,
		"percent":  row.Percent,
		"excluded": row.Excluded,
		"verified": row.Verified,
	}

	var mismatches []string
	for _, key := range sortedKeys(a.Expect) {
		got, ok := fields[key]
		if !ok {
			return fmt.Errorf("publisher %s: unknown field %q", a.Publisher, key)
		}
		// YAML numbers decode as int; compare textually.
		if fmt.Sprint(got) != fmt.Sprint(a.Expect[key]) {
			mismatches = append(mismatches, fmt.Sprintf("%s=%v (want %v)", key, got, a.Expect[key]))
		}
	}
	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s with %v", a.Publisher, a.Expect),
			Actual:   strings.Join(mismatches, ", "),
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
