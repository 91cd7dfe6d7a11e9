package state

import (
	"errors"
	"fmt"

	"github.com/roach88/rewards/internal/codec"
	"github.com/roach88/rewards/internal/model"
)

// SchemaVersion is the ledger-state blob version written by Encode.
//
// Version history:
//
//	0 - unversioned document (payload at top level)
//	1 - envelope with payload
const SchemaVersion = 1

// ErrMalformed wraps every decode failure of the ledger-state blob.
var ErrMalformed = errors.New("state: malformed ledger state")

type ledgerDoc struct {
	Wallet       WalletInfo        `json:"wallet"`
	Settings     Settings          `json:"settings"`
	Grants       []model.Grant     `json:"grants"`
	CurrentGrant *model.Grant      `json:"current_grant,omitempty"`
	Reconciles   []ReconcileRecord `json:"reconciles"`
}

// Encode renders the ledger as a canonical, versioned blob.
func (l *Ledger) Encode() (string, error) {
	doc := ledgerDoc{
		Wallet:     l.wallet,
		Settings:   l.settings,
		Grants:     l.grants,
		Reconciles: l.Reconciles(),
	}
	if l.currentGrant != (model.Grant{}) {
		g := l.currentGrant
		doc.CurrentGrant = &g
	}
	blob, err := codec.Seal(SchemaVersion, doc)
	if err != nil {
		return "", fmt.Errorf("encode ledger state: %w", err)
	}
	return blob, nil
}

// Decode parses a ledger-state blob. The returned error wraps ErrMalformed
// for any parse or invariant failure.
func Decode(blob string) (*Ledger, error) {
	doc := ledgerDoc{Settings: DefaultSettings()}
	if _, err := codec.Open(blob, SchemaVersion, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	l := New()
	l.wallet = doc.Wallet
	l.settings = doc.Settings
	l.grants = doc.Grants
	if doc.CurrentGrant != nil {
		l.currentGrant = *doc.CurrentGrant
	}
	for _, rec := range doc.Reconciles {
		if !rec.Category.Valid() {
			return nil, fmt.Errorf("%w: reconcile %s has category %q", ErrMalformed, rec.ViewingID, rec.Category)
		}
		if err := l.AddReconcile(rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	return l, nil
}

// LoadState replaces l's contents with the decoded blob. On failure l is
// left untouched.
func (l *Ledger) LoadState(blob string) error {
	decoded, err := Decode(blob)
	if err != nil {
		return err
	}
	*l = *decoded
	return nil
}
