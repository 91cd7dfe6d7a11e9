package state

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/model"
)

// Addresses are the wallet's deposit addresses per currency.
type Addresses struct {
	BAT string `json:"bat"`
	BTC string `json:"btc"`
	ETH string `json:"eth"`
	LTC string `json:"ltc"`
}

// Map returns the addresses keyed by currency code.
func (a Addresses) Map() map[string]string {
	return map[string]string{
		"BAT": a.BAT,
		"BTC": a.BTC,
		"ETH": a.ETH,
		"LTC": a.LTC,
	}
}

// WalletInfo is the singleton wallet identity for a user profile.
type WalletInfo struct {
	PaymentID    string                     `json:"payment_id"`
	Addresses    Addresses                  `json:"addresses"`
	PersonaID    string                     `json:"persona_id"`
	UserID       string                     `json:"user_id"`
	RegistrarVK  string                     `json:"registrar_vk"`
	RecoverySeed string                     `json:"recovery_seed"`
	Balance      decimal.Decimal            `json:"balance"`
	Rates        map[string]decimal.Decimal `json:"rates"`
	FeeAmount    decimal.Decimal            `json:"fee_amount"`
	Days         uint32                     `json:"days"`
}

// Settings are the user's rewards preferences plus refresh bookkeeping.
type Settings struct {
	RewardsEnabled             bool            `json:"rewards_enabled"`
	AutoContributeEnabled      bool            `json:"auto_contribute_enabled"`
	ContributionAmount         decimal.Decimal `json:"contribution_amount"`
	UserChangedContribution    bool            `json:"user_changed_contribution"`
	MinVisitDuration           uint64          `json:"min_visit_duration"`
	MinVisitCount              uint32          `json:"min_visit_count"`
	AllowNonVerified           bool            `json:"allow_non_verified"`
	AllowVideos                bool            `json:"allow_videos"`
	ReconcileStamp             uint64          `json:"reconcile_stamp"`
	LastGrantCheckTimestamp    uint64          `json:"last_grant_check_timestamp"`
	LastPublisherListTimestamp uint64          `json:"last_publisher_list_timestamp"`
	BootStamp                  uint64          `json:"boot_stamp"`
}

// Default settings for a fresh profile.
const (
	DefaultMinVisitDuration = 8
	DefaultMinVisitCount    = 1
)

// DefaultContributionAmount is the monthly auto-contribute budget in BAT.
var DefaultContributionAmount = decimal.NewFromInt(10)

// DefaultSettings returns the settings a fresh profile starts with.
func DefaultSettings() Settings {
	return Settings{
		AutoContributeEnabled: true,
		ContributionAmount:    DefaultContributionAmount,
		MinVisitDuration:      DefaultMinVisitDuration,
		MinVisitCount:         DefaultMinVisitCount,
		AllowNonVerified:      true,
		AllowVideos:           true,
	}
}

// Step is a reconcile record's position in the contribution state machine.
type Step string

const (
	StepInitiated          Step = "INITIATED"
	StepDirectionsComputed Step = "DIRECTIONS_COMPUTED"
	StepRequestSent        Step = "REQUEST_SENT"
	StepCompleted          Step = "COMPLETED"
	StepFailed             Step = "FAILED"
)

// Terminal reports whether no further transition leaves s.
func (s Step) Terminal() bool {
	return s == StepCompleted
}

// ReconcileRecord is one in-flight contribution.
type ReconcileRecord struct {
	ViewingID  string            `json:"viewing_id"`
	Category   model.Category    `json:"category"`
	Directions []model.Direction `json:"directions"`
	Amount     decimal.Decimal   `json:"amount"`
	Currency   string            `json:"currency"`
	Step       Step              `json:"step"`
	RetryStep  Step              `json:"retry_step"`
	RetryLevel int               `json:"retry_level"`
	CreatedAt  uint64            `json:"created_at"`
}

// TotalWeight sums the weights of all directions.
func (r ReconcileRecord) TotalWeight() decimal.Decimal {
	total := decimal.Zero
	for _, d := range r.Directions {
		total = total.Add(d.Weight)
	}
	return total
}
