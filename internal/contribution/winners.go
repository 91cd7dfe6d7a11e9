package contribution

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/model"
)

// DefaultCurrency is the settlement currency for contributions.
const DefaultCurrency = "BAT"

// weightPlaces is the precision of normalized auto-contribute weights.
const weightPlaces = 8

// Winners turns publishers into auto-contribute directions weighted by
// each publisher's share of the total attention duration. Excluded and
// zero-duration publishers are skipped, as is any publisher whose share
// rounds to zero.
func Winners(publishers []model.PublisherInfo) []model.Direction {
	var total uint64
	for _, p := range publishers {
		if p.Excluded == model.ExcludeExcluded {
			continue
		}
		total += p.Duration
	}
	if total == 0 {
		return nil
	}

	denom := decimal.NewFromInt(int64(total))
	var out []model.Direction
	for _, p := range publishers {
		if p.Excluded == model.ExcludeExcluded || p.Duration == 0 {
			continue
		}
		w := decimal.NewFromInt(int64(p.Duration)).DivRound(denom, weightPlaces)
		if w.IsZero() {
			continue
		}
		out = append(out, model.Direction{
			PublisherID: p.ID,
			Weight:      w,
			Currency:    DefaultCurrency,
		})
	}
	return out
}

// positive drops directions without a publisher or a positive weight.
func positive(dirs []model.Direction) []model.Direction {
	var out []model.Direction
	for _, d := range dirs {
		if d.PublisherID == "" || !d.Weight.IsPositive() {
			continue
		}
		if d.Currency == "" {
			d.Currency = DefaultCurrency
		}
		out = append(out, d)
	}
	return out
}

func totalWeight(dirs []model.Direction) decimal.Decimal {
	total := decimal.Zero
	for _, d := range dirs {
		total = total.Add(d.Weight)
	}
	return total
}
