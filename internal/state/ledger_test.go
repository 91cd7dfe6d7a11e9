package state

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewards/internal/model"
)

func newRecord(id string, c model.Category, created uint64) ReconcileRecord {
	return ReconcileRecord{
		ViewingID: id,
		Category:  c,
		Directions: []model.Direction{
			{PublisherID: "a.com", Weight: decimal.RequireFromString("1"), Currency: "BAT"},
		},
		Amount:    decimal.RequireFromString("5"),
		Currency:  "BAT",
		Step:      StepInitiated,
		CreatedAt: created,
	}
}

func TestNew_Defaults(t *testing.T) {
	l := New()
	s := l.Settings()

	assert.False(t, l.IsWalletCreated())
	assert.True(t, s.AutoContributeEnabled)
	assert.Equal(t, uint64(DefaultMinVisitDuration), s.MinVisitDuration)
	assert.Equal(t, uint32(DefaultMinVisitCount), s.MinVisitCount)
	assert.True(t, s.ContributionAmount.Equal(DefaultContributionAmount))
	assert.Empty(t, l.Reconciles())
}

func TestAddReconcile_RejectsDuplicateViewingID(t *testing.T) {
	l := New()
	require.NoError(t, l.AddReconcile(newRecord("v1", model.CategoryDirectDonation, 1)))

	err := l.AddReconcile(newRecord("v1", model.CategoryDirectDonation, 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateViewingID))
	assert.Len(t, l.Reconciles(), 1)
}

func TestAddReconcile_SingleActiveAutoContribute(t *testing.T) {
	l := New()
	require.NoError(t, l.AddReconcile(newRecord("auto-1", model.CategoryAutoContribute, 1)))

	err := l.AddReconcile(newRecord("auto-2", model.CategoryAutoContribute, 2))
	assert.True(t, errors.Is(err, ErrAutoContributeActive))

	// Other categories may coexist with the active auto-contribute.
	require.NoError(t, l.AddReconcile(newRecord("tip-1", model.CategoryDirectDonation, 3)))
	require.NoError(t, l.AddReconcile(newRecord("tip-2", model.CategoryDirectDonation, 4)))

	// Once removed, a new auto-contribute may start.
	require.True(t, l.RemoveReconcile("auto-1"))
	require.NoError(t, l.AddReconcile(newRecord("auto-2", model.CategoryAutoContribute, 5)))
}

func TestReconciles_OrderedByCreation(t *testing.T) {
	l := New()
	require.NoError(t, l.AddReconcile(newRecord("c", model.CategoryDirectDonation, 30)))
	require.NoError(t, l.AddReconcile(newRecord("a", model.CategoryDirectDonation, 10)))
	require.NoError(t, l.AddReconcile(newRecord("b", model.CategoryDirectDonation, 10)))

	var ids []string
	for _, r := range l.Reconciles() {
		ids = append(ids, r.ViewingID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestAddReconcileStep(t *testing.T) {
	l := New()
	require.NoError(t, l.AddReconcile(newRecord("v1", model.CategoryDirectDonation, 1)))

	assert.True(t, l.AddReconcileStep("v1", StepRequestSent, 2))
	assert.False(t, l.AddReconcileStep("missing", StepRequestSent, 1))

	rec, ok := l.Reconcile("v1")
	require.True(t, ok)
	assert.Equal(t, StepRequestSent, rec.RetryStep)
	assert.Equal(t, 2, rec.RetryLevel)
}

func TestUpdateReconcile_Unknown(t *testing.T) {
	l := New()
	err := l.UpdateReconcile(newRecord("nope", model.CategoryDirectDonation, 1))
	assert.True(t, errors.Is(err, ErrReconcileNotFound))
}

func TestGrants(t *testing.T) {
	l := New()
	l.AddGrant(model.Grant{PromotionID: "p1", Probi: "1"})
	l.AddGrant(model.Grant{PromotionID: "p2", Probi: "2"})

	assert.True(t, l.RemoveGrant("p1"))
	assert.False(t, l.RemoveGrant("p1"))
	require.Len(t, l.Grants(), 1)
	assert.Equal(t, "p2", l.Grants()[0].PromotionID)

	// Grants returns a copy.
	g := l.Grants()
	g[0].PromotionID = "mutated"
	assert.Equal(t, "p2", l.Grants()[0].PromotionID)
}

func TestHasSufficientBalance(t *testing.T) {
	l := New()
	l.SetContributionAmount(decimal.NewFromInt(10))

	w := l.Wallet()
	w.Balance = decimal.RequireFromString("9.99")
	l.SetWallet(w)
	assert.False(t, l.HasSufficientBalance())

	w.Balance = decimal.NewFromInt(10)
	l.SetWallet(w)
	assert.True(t, l.HasSufficientBalance())
}

func TestSetWalletProperties_ReplacesGrants(t *testing.T) {
	l := New()
	l.AddGrant(model.Grant{PromotionID: "old"})

	l.SetWalletProperties(model.WalletProperties{
		Balance: decimal.RequireFromString("3.5"),
		Grants:  []model.Grant{{PromotionID: "new"}},
	})

	assert.True(t, l.Balance().Equal(decimal.RequireFromString("3.5")))
	require.Len(t, l.Grants(), 1)
	assert.Equal(t, "new", l.Grants()[0].PromotionID)
}
