package state

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/model"
)

var (
	// ErrDuplicateViewingID rejects a second record for an active viewing id.
	ErrDuplicateViewingID = errors.New("state: viewing id already has an active reconcile")

	// ErrAutoContributeActive rejects a second active AUTO_CONTRIBUTE record.
	ErrAutoContributeActive = errors.New("state: an auto-contribute reconcile is already active")

	// ErrReconcileNotFound is returned when updating an unknown viewing id.
	ErrReconcileNotFound = errors.New("state: reconcile not found")
)

// Ledger is the in-memory form of the ledger-state blob.
//
// Ledger is not safe for concurrent use; the engine mutates it only from
// its single event loop.
type Ledger struct {
	wallet       WalletInfo
	settings     Settings
	grants       []model.Grant
	currentGrant model.Grant
	reconciles   map[string]ReconcileRecord
}

// New returns an empty ledger with default settings.
func New() *Ledger {
	return &Ledger{
		settings:   DefaultSettings(),
		reconciles: make(map[string]ReconcileRecord),
	}
}

// Wallet returns a copy of the wallet identity.
func (l *Ledger) Wallet() WalletInfo {
	w := l.wallet
	if l.wallet.Rates != nil {
		w.Rates = make(map[string]decimal.Decimal, len(l.wallet.Rates))
		for k, v := range l.wallet.Rates {
			w.Rates[k] = v
		}
	}
	return w
}

// SetWallet replaces the wallet identity.
func (l *Ledger) SetWallet(w WalletInfo) {
	l.wallet = w
}

// IsWalletCreated reports whether registration has completed.
func (l *Ledger) IsWalletCreated() bool {
	return l.wallet.PaymentID != ""
}

func (l *Ledger) PaymentID() string { return l.wallet.PaymentID }
func (l *Ledger) SetPaymentID(id string) { l.wallet.PaymentID = id }
func (l *Ledger) PersonaID() string { return l.wallet.PersonaID }
func (l *Ledger) SetPersonaID(id string) { l.wallet.PersonaID = id }
func (l *Ledger) UserID() string { return l.wallet.UserID }
func (l *Ledger) SetUserID(id string) { l.wallet.UserID = id }
func (l *Ledger) RegistrarVK() string { return l.wallet.RegistrarVK }
func (l *Ledger) SetRegistrarVK(vk string) { l.wallet.RegistrarVK = vk }
func (l *Ledger) Addresses() Addresses { return l.wallet.Addresses }
func (l *Ledger) SetAddresses(a Addresses) { l.wallet.Addresses = a }
func (l *Ledger) Balance() decimal.Decimal { return l.wallet.Balance }
func (l *Ledger) RecoverySeed() string { return l.wallet.RecoverySeed }
func (l *Ledger) SetRecoverySeed(s string) { l.wallet.RecoverySeed = s }

// SetWalletProperties folds a properties response into the wallet record.
func (l *Ledger) SetWalletProperties(p model.WalletProperties) {
	l.wallet.Balance = p.Balance
	l.wallet.Rates = p.Rates
	l.wallet.FeeAmount = p.FeeAmount
	l.wallet.Days = p.Days
	l.grants = append([]model.Grant(nil), p.Grants...)
}

// Settings returns a copy of the settings.
func (l *Ledger) Settings() Settings {
	return l.settings
}

func (l *Ledger) SetRewardsEnabled(v bool) { l.settings.RewardsEnabled = v }
func (l *Ledger) SetAutoContribute(v bool) { l.settings.AutoContributeEnabled = v }
func (l *Ledger) SetContributionAmount(v decimal.Decimal) { l.settings.ContributionAmount = v }
func (l *Ledger) SetUserChangedContribution() { l.settings.UserChangedContribution = true }
func (l *Ledger) SetMinVisitDuration(seconds uint64) { l.settings.MinVisitDuration = seconds }
func (l *Ledger) SetMinVisitCount(n uint32) { l.settings.MinVisitCount = n }
func (l *Ledger) SetAllowNonVerified(v bool) { l.settings.AllowNonVerified = v }
func (l *Ledger) SetAllowVideos(v bool) { l.settings.AllowVideos = v }
func (l *Ledger) SetReconcileStamp(stamp uint64) { l.settings.ReconcileStamp = stamp }
func (l *Ledger) SetLastGrantCheck(stamp uint64) { l.settings.LastGrantCheckTimestamp = stamp }
func (l *Ledger) SetLastPublisherListLoad(stamp uint64) { l.settings.LastPublisherListTimestamp = stamp }
func (l *Ledger) SetBootStamp(stamp uint64) { l.settings.BootStamp = stamp }

// Grants returns a copy of the redeemed-but-unspent grants.
func (l *Ledger) Grants() []model.Grant {
	return append([]model.Grant(nil), l.grants...)
}

// AddGrant records a successfully redeemed grant.
func (l *Ledger) AddGrant(g model.Grant) {
	l.grants = append(l.grants, g)
}

// RemoveGrant consumes the grant with the given promotion id.
// Returns false if no such grant exists.
func (l *Ledger) RemoveGrant(promotionID string) bool {
	for i, g := range l.grants {
		if g.PromotionID == promotionID {
			l.grants = append(l.grants[:i], l.grants[i+1:]...)
			return true
		}
	}
	return false
}

// CurrentGrant is the promotion fetched but not yet solved.
func (l *Ledger) CurrentGrant() model.Grant {
	return l.currentGrant
}

// SetCurrentGrant replaces the promotion in flight.
func (l *Ledger) SetCurrentGrant(g model.Grant) {
	l.currentGrant = g
}

// AddReconcile starts tracking a new reconcile record.
func (l *Ledger) AddReconcile(rec ReconcileRecord) error {
	if _, exists := l.reconciles[rec.ViewingID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateViewingID, rec.ViewingID)
	}
	if rec.Category == model.CategoryAutoContribute && l.HasActiveCategory(model.CategoryAutoContribute) {
		return ErrAutoContributeActive
	}
	l.reconciles[rec.ViewingID] = rec
	return nil
}

// UpdateReconcile replaces an existing record, keyed by viewing id.
func (l *Ledger) UpdateReconcile(rec ReconcileRecord) error {
	if _, exists := l.reconciles[rec.ViewingID]; !exists {
		return fmt.Errorf("%w: %s", ErrReconcileNotFound, rec.ViewingID)
	}
	l.reconciles[rec.ViewingID] = rec
	return nil
}

// AddReconcileStep records the step a record will resume from and its
// retry level. Returns false for unknown viewing ids.
func (l *Ledger) AddReconcileStep(viewingID string, step Step, level int) bool {
	rec, ok := l.reconciles[viewingID]
	if !ok {
		return false
	}
	rec.RetryStep = step
	rec.RetryLevel = level
	l.reconciles[viewingID] = rec
	return true
}

// Reconcile returns the record for viewingID.
func (l *Ledger) Reconcile(viewingID string) (ReconcileRecord, bool) {
	rec, ok := l.reconciles[viewingID]
	return rec, ok
}

// ReconcileExists reports whether viewingID has an active record.
func (l *Ledger) ReconcileExists(viewingID string) bool {
	_, ok := l.reconciles[viewingID]
	return ok
}

// RemoveReconcile drops the record for viewingID. Returns false if absent.
func (l *Ledger) RemoveReconcile(viewingID string) bool {
	if _, ok := l.reconciles[viewingID]; !ok {
		return false
	}
	delete(l.reconciles, viewingID)
	return true
}

// HasActiveCategory reports whether any active record has category c.
func (l *Ledger) HasActiveCategory(c model.Category) bool {
	for _, rec := range l.reconciles {
		if rec.Category == c {
			return true
		}
	}
	return false
}

// Reconciles returns all active records ordered by creation time, then
// viewing id.
func (l *Ledger) Reconciles() []ReconcileRecord {
	out := make([]ReconcileRecord, 0, len(l.reconciles))
	for _, rec := range l.reconciles {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ViewingID < out[j].ViewingID
	})
	return out
}

// HasSufficientBalance reports whether the balance covers the monthly
// contribution amount.
func (l *Ledger) HasSufficientBalance() bool {
	return l.wallet.Balance.GreaterThanOrEqual(l.settings.ContributionAmount)
}
