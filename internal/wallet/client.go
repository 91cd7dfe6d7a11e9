package wallet

import (
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/codec"
	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/state"
)

// Host is the part of host.Client the wallet client needs.
type Host interface {
	LoadURL(req host.Request, cb func(host.Response))
	GenerateGUID() string
	URIEncode(value string) string
	Now() time.Time
}

// Sink receives the outcome of each wallet flow. The engine implements it,
// persisting the ledger and forwarding notifications to the host.
type Sink interface {
	OnWalletCreated(result model.Result)
	OnWalletProperties(result model.Result, props *model.WalletProperties)
	OnGrant(result model.Result, grant model.Grant)
	OnGrantCaptcha(image, hint string)
	OnGrantFinish(result model.Result, grant model.Grant)
	OnRecoverWallet(result model.Result, balance decimal.Decimal, grants []model.Grant)
}

// Endpoints are the server base URLs the client talks to.
type Endpoints struct {
	Ledger  string
	Balance string
}

// Client runs wallet flows on behalf of the engine.
//
// Client is not safe for concurrent use.
type Client struct {
	host   Host
	ledger *state.Ledger
	sink   Sink
	urls   Endpoints
	log    *slog.Logger

	// generation advances whenever the wallet identity is replaced.
	// Callbacks started under an older generation are stale.
	generation uint64
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates a wallet client.
func New(h Host, ledger *state.Ledger, sink Sink, urls Endpoints, opts ...Option) *Client {
	c := &Client{
		host:   h,
		ledger: ledger,
		sink:   sink,
		urls:   urls,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generation returns the current identity generation.
func (c *Client) Generation() uint64 {
	return c.generation
}

// Passphrase renders the recovery seed in groups of eight characters.
// RecoverWallet accepts the same text back, whitespace ignored.
func (c *Client) Passphrase() string {
	seed := c.ledger.RecoverySeed()
	var groups []string
	for len(seed) > 8 {
		groups = append(groups, seed[:8])
		seed = seed[8:]
	}
	if seed != "" {
		groups = append(groups, seed)
	}
	return strings.Join(groups, " ")
}

func normalizePassphrase(p string) string {
	return strings.ToLower(strings.Join(strings.Fields(p), ""))
}

// recoveryKey is the lookup key the server indexes wallets by.
func recoveryKey(seed string) string {
	return codec.HashWithDomain(codec.DomainRecovery, []byte(seed))
}

func (c *Client) now() uint64 {
	return uint64(c.host.Now().Unix())
}

func (c *Client) logResponse(name string, resp host.Response) {
	c.log.Debug("response",
		"func", name,
		"ok", resp.OK(),
		"response", resp.String())
}

// resultFor maps a failed response onto the result taxonomy.
func resultFor(resp host.Response) model.Result {
	switch {
	case resp.OK():
		return model.ResultOK
	case resp.Status == 404:
		return model.ResultNotFound
	case resp.Status == 0 || resp.Status >= 500:
		return model.ResultTransientIO
	default:
		return model.ResultLedgerError
	}
}
