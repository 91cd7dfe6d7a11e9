package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublisherFilter_Matches(t *testing.T) {
	verified := PublisherInfo{ID: "a.com", Verified: true, Excluded: ExcludeDefault, Duration: 40}
	excluded := PublisherInfo{ID: "b.com", Excluded: ExcludeExcluded, Duration: 40}
	short := PublisherInfo{ID: "c.com", Excluded: ExcludeIncluded, Duration: 5}

	tests := []struct {
		name   string
		filter PublisherFilter
		want   []bool
	}{
		{"zero filter matches all", PublisherFilter{}, []bool{true, true, true}},
		{"by id", PublisherFilter{ID: "b.com"}, []bool{false, true, false}},
		{"excluded only", PublisherFilter{Excluded: FilterExcluded}, []bool{false, true, false}},
		{"all except excluded", PublisherFilter{Excluded: FilterAllExceptExcluded}, []bool{true, false, true}},
		{"included only", PublisherFilter{Excluded: FilterIncluded}, []bool{false, false, true}},
		{"min duration", PublisherFilter{MinDuration: 30}, []bool{true, true, false}},
		{"verified only", PublisherFilter{VerifiedOnly: true}, []bool{true, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []bool{
				tt.filter.Matches(verified),
				tt.filter.Matches(excluded),
				tt.filter.Matches(short),
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResult_Classification(t *testing.T) {
	assert.True(t, ResultOK.OK())
	assert.True(t, ResultWalletCreated.Initialized())
	assert.False(t, ResultInvalidLedgerState.Initialized())
	assert.True(t, ResultTransientIO.Retriable())
	assert.False(t, ResultZeroWeight.Retriable())
	assert.False(t, ResultNotFound.Retriable())
}

func TestReportTypeFor(t *testing.T) {
	assert.Equal(t, ReportAutoContribute, ReportTypeFor(CategoryAutoContribute))
	assert.Equal(t, ReportRecurringDonation, ReportTypeFor(CategoryRecurringDonation))
	assert.Equal(t, ReportTip, ReportTypeFor(CategoryDirectDonation))
}
