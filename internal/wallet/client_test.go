package wallet

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/state"
	"github.com/roach88/rewards/internal/testutil"
)

const now = 1700000000

type sinkEvent struct {
	name    string
	result  model.Result
	grant   model.Grant
	grants  []model.Grant
	balance decimal.Decimal
	props   *model.WalletProperties
	image   string
	hint    string
}

type recordingSink struct {
	events []sinkEvent
}

func (s *recordingSink) OnWalletCreated(r model.Result) {
	s.events = append(s.events, sinkEvent{name: "created", result: r})
}

func (s *recordingSink) OnWalletProperties(r model.Result, p *model.WalletProperties) {
	s.events = append(s.events, sinkEvent{name: "properties", result: r, props: p})
}

func (s *recordingSink) OnGrant(r model.Result, g model.Grant) {
	s.events = append(s.events, sinkEvent{name: "grant", result: r, grant: g})
}

func (s *recordingSink) OnGrantCaptcha(image, hint string) {
	s.events = append(s.events, sinkEvent{name: "captcha", image: image, hint: hint})
}

func (s *recordingSink) OnGrantFinish(r model.Result, g model.Grant) {
	s.events = append(s.events, sinkEvent{name: "finish", result: r, grant: g})
}

func (s *recordingSink) OnRecoverWallet(r model.Result, balance decimal.Decimal, grants []model.Grant) {
	s.events = append(s.events, sinkEvent{name: "recover", result: r, balance: balance, grants: grants})
}

func (s *recordingSink) last(t *testing.T) sinkEvent {
	t.Helper()
	require.NotEmpty(t, s.events)
	return s.events[len(s.events)-1]
}

var urls = Endpoints{Ledger: "https://ledger.test", Balance: "https://balance.test"}

func newClient(t *testing.T) (*Client, *state.Ledger, *testutil.FakeHost, *recordingSink) {
	t.Helper()
	h := testutil.NewFakeHost(now)
	l := state.New()
	s := &recordingSink{}
	return New(h, l, s, urls), l, h, s
}

func ok(body string) host.Response {
	return host.Response{Status: 200, Body: body}
}

const registrationBody = `{
	"wallet": {"paymentId": "pay-1", "addresses": {"BAT": "0xbat", "BTC": "1btc", "ETH": "0xeth", "LTC": "Lltc"}},
	"userId": "user-1",
	"parameters": {"fee": "10", "days": 30}
}`

const propertiesBody = `{
	"altcurrency": "BAT",
	"probi": "25500000000000000000",
	"balance": "25.5",
	"rates": {"USD": "0.2"},
	"parameters": {"choices": [5, 10, 15], "range": [5, 100], "days": 30},
	"grants": [{"altcurrency": "BAT", "probi": "30000000000000000000", "expiryTime": 1710000000}]
}`

func register(t *testing.T, c *Client, h *testutil.FakeHost) {
	t.Helper()
	c.RegisterPersona()
	require.NoError(t, h.Respond("/v2/registrar/persona", ok(`{"registrarVK":"vk"}`)))
	require.NoError(t, h.Respond("/v2/registrar/persona/", ok(registrationBody)))
}

func TestRegisterPersona(t *testing.T) {
	c, l, h, s := newClient(t)
	register(t, c, h)

	assert.Equal(t, model.ResultWalletCreated, s.last(t).result)
	assert.True(t, l.IsWalletCreated())
	assert.Equal(t, "pay-1", l.PaymentID())
	assert.Equal(t, "vk", l.RegistrarVK())
	assert.Equal(t, "0xbat", l.Addresses().BAT)
	assert.Equal(t, uint64(now), l.Settings().BootStamp)
	assert.NotEmpty(t, l.RecoverySeed())

	// The registered public key is the recovery lookup key of the seed.
	reg := h.Requests[1].Request
	assert.Equal(t, host.MethodPost, reg.Method)
	var body registrationRequest
	require.NoError(t, json.Unmarshal([]byte(reg.Body), &body))
	assert.Equal(t, recoveryKey(l.RecoverySeed()), body.PublicKey)
	assert.Equal(t, l.PersonaID(), body.Label)
}

func TestRegisterPersona_BadRegistrar(t *testing.T) {
	c, l, h, s := newClient(t)
	c.RegisterPersona()
	require.NoError(t, h.Respond("/v2/registrar/persona", ok(`{}`)))

	assert.Equal(t, model.ResultBadRegistrationResponse, s.last(t).result)
	assert.False(t, l.IsWalletCreated())
	assert.Len(t, h.Requests, 1, "no registration without a registrar key")
}

func TestRegisterPersona_ServerDown(t *testing.T) {
	c, _, h, s := newClient(t)
	c.RegisterPersona()
	require.NoError(t, h.Respond("/v2/registrar/persona", host.Response{Status: 0}))
	assert.Equal(t, model.ResultTransientIO, s.last(t).result)
}

func TestRegisterPersona_StaleResponseDropped(t *testing.T) {
	c, l, h, s := newClient(t)
	c.RegisterPersona()
	first := h.Pending("/v2/registrar/persona")[0]
	c.RegisterPersona()

	require.NoError(t, h.RespondTo(first, ok(`{"registrarVK":"old"}`)))
	assert.Empty(t, s.events)
	assert.Len(t, h.Requests, 2, "stale registrar answer must not continue the flow")

	require.NoError(t, h.Respond("/v2/registrar/persona", ok(`{"registrarVK":"vk"}`)))
	require.NoError(t, h.Respond("/v2/registrar/persona/", ok(registrationBody)))
	assert.Equal(t, "vk", l.RegistrarVK())
}

func TestFetchWalletProperties(t *testing.T) {
	c, l, h, s := newClient(t)

	c.FetchWalletProperties()
	assert.Equal(t, model.ResultLedgerError, s.last(t).result, "no wallet yet")

	register(t, c, h)
	c.FetchWalletProperties()
	require.NoError(t, h.Respond("/v2/wallet/pay-1", ok(propertiesBody)))

	ev := s.last(t)
	require.Equal(t, model.ResultOK, ev.result)
	require.NotNil(t, ev.props)
	assert.True(t, ev.props.Balance.Equal(decimal.RequireFromString("25.5")))
	assert.True(t, ev.props.FeeAmount.Equal(state.DefaultContributionAmount))
	assert.Len(t, ev.props.Choices, 3)
	assert.True(t, l.Balance().Equal(decimal.RequireFromString("25.5")))
	require.Len(t, l.Grants(), 1)
}

func TestFetchWalletProperties_WalletReplaced(t *testing.T) {
	c, l, h, s := newClient(t)
	register(t, c, h)
	c.FetchWalletProperties()
	n := len(s.events)

	l.SetPaymentID("other")
	require.NoError(t, h.Respond("/v2/wallet/pay-1", ok(propertiesBody)))
	assert.Len(t, s.events, n)
	assert.True(t, l.Balance().IsZero())
}

func TestRecoverWallet(t *testing.T) {
	c, l, h, _ := newClient(t)
	register(t, c, h)
	phrase := c.Passphrase()
	seed := l.RecoverySeed()

	fresh, fl, fh, fs := newClient(t)
	fresh.RecoverWallet(strings.ToUpper(phrase))

	lookup := fh.Pending("/v2/wallet?publicKey=")
	require.Len(t, lookup, 1)
	assert.Contains(t, lookup[0].Request.URL, recoveryKey(seed))

	require.NoError(t, fh.RespondTo(lookup[0], ok(`{"paymentId":"pay-1"}`)))
	require.NoError(t, fh.Respond("/v2/wallet/pay-1", ok(propertiesBody)))

	ev := fs.last(t)
	assert.Equal(t, "recover", ev.name)
	assert.Equal(t, model.ResultOK, ev.result)
	assert.True(t, ev.balance.Equal(decimal.RequireFromString("25.5")))
	assert.Len(t, ev.grants, 1)
	assert.Equal(t, "pay-1", fl.PaymentID())
	assert.Equal(t, seed, fl.RecoverySeed())
}

func TestRecoverWallet_Unknown(t *testing.T) {
	c, l, h, s := newClient(t)
	c.RecoverWallet("abcd 1234")
	require.NoError(t, h.Respond("/v2/wallet?publicKey=", host.Response{Status: 404}))

	assert.Equal(t, model.ResultLedgerError, s.last(t).result)
	assert.False(t, l.IsWalletCreated())
}

func TestRecoverWallet_EmptyPassphrase(t *testing.T) {
	c, _, h, s := newClient(t)
	c.RecoverWallet("   ")
	assert.Equal(t, model.ResultLedgerError, s.last(t).result)
	assert.Empty(t, h.Requests)
}

func TestPassphrase_Groups(t *testing.T) {
	c, l, _, _ := newClient(t)
	l.SetRecoverySeed("0123456789abcdef01")
	assert.Equal(t, "01234567 89abcdef 01", c.Passphrase())
	assert.Equal(t, "0123456789abcdef01", normalizePassphrase(c.Passphrase()))
}
