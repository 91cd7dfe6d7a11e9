package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies a contribution.
type Category string

const (
	CategoryAutoContribute    Category = "AUTO_CONTRIBUTE"
	CategoryRecurringDonation Category = "RECURRING_DONATION"
	CategoryDirectDonation    Category = "DIRECT_DONATION"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryAutoContribute, CategoryRecurringDonation, CategoryDirectDonation:
		return true
	}
	return false
}

// ExcludeState is the user's inclusion choice for a publisher.
type ExcludeState string

const (
	ExcludeDefault  ExcludeState = "DEFAULT"
	ExcludeIncluded ExcludeState = "INCLUDED"
	ExcludeExcluded ExcludeState = "EXCLUDED"
)

// VisitData describes a navigation the host observed in a tab.
type VisitData struct {
	TabID      uint32 `json:"tab_id"`
	Domain     string `json:"domain"`
	TLD        string `json:"tld"`
	Path       string `json:"path,omitempty"`
	URL        string `json:"url,omitempty"`
	Name       string `json:"name,omitempty"`
	Provider   string `json:"provider,omitempty"`
	FaviconURL string `json:"favicon_url,omitempty"`
}

// PublisherInfo is the accumulated attention record for one publisher.
// Records are never deleted, only re-weighted or re-excluded.
type PublisherInfo struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	URL        string       `json:"url"`
	Provider   string       `json:"provider"`
	FaviconURL string       `json:"favicon_url"`
	Verified   bool         `json:"verified"`
	Excluded   ExcludeState `json:"excluded"`
	Percent    uint32       `json:"percent"`
	Weight     float64      `json:"weight"`
	Duration   uint64       `json:"duration"`
	Visits     uint32       `json:"visits"`
}

// Grant is a token allotment issued by the rewards server.
type Grant struct {
	PromotionID string `json:"promotion_id"`
	AltCurrency string `json:"altcurrency"`
	Probi       string `json:"probi"`
	ExpiryTime  uint64 `json:"expiry_time"`
}

// Direction is one leg of a contribution: who receives what share.
type Direction struct {
	PublisherID string          `json:"publisher_id"`
	Weight      decimal.Decimal `json:"weight"`
	Currency    string          `json:"currency"`
}

// WalletProperties is the server view of the wallet, raised to the host
// on every properties fetch.
type WalletProperties struct {
	AltCurrency string                     `json:"altcurrency"`
	Probi       string                     `json:"probi"`
	Balance     decimal.Decimal            `json:"balance"`
	Rates       map[string]decimal.Decimal `json:"rates"`
	Choices     []decimal.Decimal          `json:"choices"`
	Range       []decimal.Decimal          `json:"range"`
	Days        uint32                     `json:"days"`
	FeeAmount   decimal.Decimal            `json:"fee_amount"`
	Grants      []Grant                    `json:"grants"`
}

// ReportType names a balance report line item.
type ReportType string

const (
	ReportGrant             ReportType = "grant"
	ReportDeposit           ReportType = "deposit"
	ReportAutoContribute    ReportType = "auto_contribute"
	ReportTip               ReportType = "tip"
	ReportRecurringDonation ReportType = "recurring_donation"
)

// ReportTypeFor maps a contribution category to its balance report item.
func ReportTypeFor(c Category) ReportType {
	switch c {
	case CategoryAutoContribute:
		return ReportAutoContribute
	case CategoryRecurringDonation:
		return ReportRecurringDonation
	default:
		return ReportTip
	}
}

// BalanceReport summarizes one month of wallet activity in probi.
type BalanceReport struct {
	Opening           decimal.Decimal `json:"opening"`
	Closing           decimal.Decimal `json:"closing"`
	Grants            decimal.Decimal `json:"grants"`
	Deposits          decimal.Decimal `json:"deposits"`
	AutoContribute    decimal.Decimal `json:"auto_contribute"`
	Tips              decimal.Decimal `json:"tips"`
	RecurringDonation decimal.Decimal `json:"recurring_donation"`
	Total             decimal.Decimal `json:"total"`
}

// ContributionInfo is the persisted record of a settled contribution leg.
type ContributionInfo struct {
	Probi       decimal.Decimal `json:"probi"`
	Month       time.Month      `json:"month"`
	Year        int             `json:"year"`
	Date        uint64          `json:"date"`
	PublisherID string          `json:"publisher_id"`
	Category    Category        `json:"category"`
}

// RecurringDonation is a monthly tip the user pledged to a publisher.
type RecurringDonation struct {
	PublisherID string          `json:"publisher_id"`
	Amount      decimal.Decimal `json:"amount"`
	AddedAt     uint64          `json:"added_at"`
}

// ExcludeFilter selects publishers by exclusion state in list queries.
type ExcludeFilter int

const (
	FilterAll ExcludeFilter = iota
	FilterDefault
	FilterExcluded
	FilterIncluded
	FilterAllExceptExcluded
)

// PublisherFilter is the query handed to the host for publisher records.
type PublisherFilter struct {
	ID             string
	Category       Category
	Month          time.Month
	Year           int
	Excluded       ExcludeFilter
	MinDuration    uint64
	ReconcileStamp uint64
	VerifiedOnly   bool
}

// AutoContributeProps is the read-only projection of auto-contribute settings.
type AutoContributeProps struct {
	Enabled        bool   `json:"enabled"`
	MinTime        uint64 `json:"min_time"`
	MinVisits      uint32 `json:"min_visits"`
	NonVerified    bool   `json:"non_verified"`
	Videos         bool   `json:"videos"`
	ReconcileStamp uint64 `json:"reconcile_stamp"`
}

// Matches reports whether info satisfies the filter's id, exclusion,
// duration and verification constraints. Category and period are
// properties of contribution rows, not of publishers, and are ignored.
func (f PublisherFilter) Matches(info PublisherInfo) bool {
	if f.ID != "" && f.ID != info.ID {
		return false
	}
	switch f.Excluded {
	case FilterDefault:
		if info.Excluded != ExcludeDefault {
			return false
		}
	case FilterExcluded:
		if info.Excluded != ExcludeExcluded {
			return false
		}
	case FilterIncluded:
		if info.Excluded != ExcludeIncluded {
			return false
		}
	case FilterAllExceptExcluded:
		if info.Excluded == ExcludeExcluded {
			return false
		}
	}
	if info.Duration < f.MinDuration {
		return false
	}
	if f.VerifiedOnly && !info.Verified {
		return false
	}
	return true
}
