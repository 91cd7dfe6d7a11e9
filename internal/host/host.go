package host

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/model"
)

// TimerID identifies an armed timer. Hosts never hand out zero.
type TimerID uint32

// Names of the three engine-owned blobs, as hosts key them.
const (
	BlobLedgerState    = "ledger_state"
	BlobPublisherState = "publisher_state"
	BlobPublisherList  = "publisher_list"
)

// BlobCallback receives the result of loading a persisted blob.
type BlobCallback func(result model.Result, blob string)

// ResultCallback receives the result of a write.
type ResultCallback func(result model.Result)

// Storage persists the three engine-owned blobs. A missing blob loads with
// model.ResultNotFound.
type Storage interface {
	LoadLedgerState(cb BlobCallback)
	SaveLedgerState(blob string, cb ResultCallback)
	LoadPublisherState(cb BlobCallback)
	SavePublisherState(blob string, cb ResultCallback)
	LoadPublisherList(cb BlobCallback)
	SavePublisherList(blob string, cb ResultCallback)
}

// Records stores per-publisher and per-contribution rows that are queried
// rather than loaded whole.
type Records interface {
	SavePublisherInfo(info model.PublisherInfo, cb func(model.Result, model.PublisherInfo))
	LoadPublisherInfo(filter model.PublisherFilter, cb func(model.Result, model.PublisherInfo))
	LoadPublisherInfoList(start, limit uint32, filter model.PublisherFilter, cb func(list []model.PublisherInfo, next uint32))
	LoadMediaPublisherInfo(mediaKey string, cb func(model.Result, model.PublisherInfo))
	SaveMediaPublisherInfo(mediaKey, publisherID string)
	SaveContributionInfo(info model.ContributionInfo, cb ResultCallback)
	SaveRecurringDonation(donation model.RecurringDonation, cb ResultCallback)
	RemoveRecurring(publisherID string, cb ResultCallback)
	LoadRecurringDonations(cb func([]model.RecurringDonation))
}

// Network transports requests the engine has fully built.
type Network interface {
	LoadURL(req Request, cb func(Response))
	FetchFavicon(url, key string, cb func(ok bool, resolved string))
}

// Utility groups the small synchronous helpers the engine needs.
type Utility interface {
	GenerateGUID() string
	URIEncode(value string) string

	// SetTimer arms a one-shot timer that fires after delay seconds. Zero
	// fires as soon as the host gets to it. The host reports the firing
	// through the engine's OnTimer.
	SetTimer(delay uint64) TimerID

	Now() time.Time
}

// Notifier receives broadcast notifications. These are not responses to a
// particular call; every observer sees them.
type Notifier interface {
	OnWalletInitialized(result model.Result)
	OnWalletProperties(result model.Result, props *model.WalletProperties)
	OnGrant(result model.Result, grant model.Grant)
	OnGrantCaptcha(image, hint string)
	OnGrantFinish(result model.Result, grant model.Grant)
	OnRecoverWallet(result model.Result, balance decimal.Decimal, grants []model.Grant)
	OnReconcileComplete(result model.Result, viewingID string, category model.Category, probi string)
	OnPublisherActivity(result model.Result, info *model.PublisherInfo, windowID uint64)
	OnExcludedSitesChanged(publisherID string)
	OnRecurringDonationUpdated(donations []model.RecurringDonation)
	OnBalanceReport(month time.Month, year int, report model.BalanceReport)
}

// Client is everything the engine consumes from its host.
type Client interface {
	Storage
	Records
	Network
	Utility
	Notifier
}
