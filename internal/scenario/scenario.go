package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rewards/internal/model"
)

// Scenario is one scripted browsing session.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the clock reading, in seconds since epoch, before the first
	// step. Zero selects DefaultStart.
	Start uint64 `yaml:"start,omitempty"`

	// Settings override the ledger defaults before any step runs.
	Settings Settings `yaml:"settings,omitempty"`

	// Verified lists the publishers in the verified registry.
	Verified []string `yaml:"verified,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final publisher table.
	Assertions []Assertion `yaml:"assertions"`
}

// DefaultStart is the clock reading scenarios begin at unless they set
// Start.
const DefaultStart = 1700000000

// Settings are the eligibility settings a scenario may override. Nil
// fields keep the ledger defaults.
type Settings struct {
	MinVisitTime     *uint64 `yaml:"min_visit_time,omitempty"`
	MinVisits        *uint32 `yaml:"min_visits,omitempty"`
	AllowNonVerified *bool   `yaml:"allow_non_verified,omitempty"`
	AllowVideos      *bool   `yaml:"allow_videos,omitempty"`
}

// Step is a single tab event or clock change.
type Step struct {
	// Action is one of the Action constants.
	Action string `yaml:"action"`

	Tab       uint32 `yaml:"tab,omitempty"`
	URL       string `yaml:"url,omitempty"`
	Seconds   uint64 `yaml:"seconds,omitempty"`
	Publisher string `yaml:"publisher,omitempty"`
	State     string `yaml:"state,omitempty"`
}

// Step actions.
const (
	ActionLoad       = "load"
	ActionUnload     = "unload"
	ActionShow       = "show"
	ActionHide       = "hide"
	ActionForeground = "foreground"
	ActionBackground = "background"
	ActionAdvance    = "advance"
	ActionExclude    = "exclude"
	ActionRestore    = "restore"
)

// Assertion validates the final state.
type Assertion struct {
	// Type is one of the Assert constants.
	Type string `yaml:"type"`

	// Publisher names the record checked by "publisher".
	Publisher string `yaml:"publisher,omitempty"`

	// Expect holds field values the "publisher" record must have.
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Publishers is the exact eligible list, in id order, for "eligible".
	Publishers []string `yaml:"publishers,omitempty"`

	// Count is the expected number of excluded publishers.
	Count int `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertPublisher     = "publisher"
	AssertEligible      = "eligible"
	AssertExcludedCount = "excluded_count"
)

// Load reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validate(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validate(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step Step) error {
	switch step.Action {
	case ActionLoad:
		if step.URL == "" {
			return fmt.Errorf("steps[%d]: url is required for load", i)
		}
	case ActionUnload, ActionShow, ActionHide, ActionForeground, ActionBackground:
	case ActionAdvance:
		if step.Seconds == 0 {
			return fmt.Errorf("steps[%d]: seconds is required for advance", i)
		}
	case ActionExclude:
		if step.Publisher == "" {
			return fmt.Errorf("steps[%d]: publisher is required for exclude", i)
		}
		switch model.ExcludeState(step.State) {
		case model.ExcludeDefault, model.ExcludeIncluded, model.ExcludeExcluded:
		default:
			return fmt.Errorf("steps[%d]: unknown exclude state %q", i, step.State)
		}
	case ActionRestore:
	case "":
		return fmt.Errorf("steps[%d]: action is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", i, step.Action)
	}
	return nil
}

func validateAssertion(i int, a Assertion) error {
	switch a.Type {
	case AssertPublisher:
		if a.Publisher == "" {
			return fmt.Errorf("assertions[%d]: publisher is required for publisher", i)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for publisher", i)
		}
	case AssertEligible:
	case AssertExcludedCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", i)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}
