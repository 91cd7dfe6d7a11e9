package wallet

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/codec"
	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/state"
)

type registrarResponse struct {
	RegistrarVK string `json:"registrarVK"`
}

type registrationRequest struct {
	Label     string `json:"label"`
	Currency  string `json:"currency"`
	PublicKey string `json:"publicKey"`
}

type registrationResponse struct {
	Wallet struct {
		PaymentID string            `json:"paymentId"`
		Addresses map[string]string `json:"addresses"`
	} `json:"wallet"`
	UserID     string `json:"userId"`
	Parameters struct {
		Fee  decimal.Decimal `json:"fee"`
		Days uint32          `json:"days"`
	} `json:"parameters"`
}

// RegisterPersona starts wallet creation. The outcome arrives through
// Sink.OnWalletCreated; WALLET_CREATED on success.
//
// Callers guard against concurrent creation; RegisterPersona itself only
// invalidates any registration still in flight.
func (c *Client) RegisterPersona() {
	c.generation++
	gen := c.generation

	c.log.Info("registering persona")
	c.host.LoadURL(host.Request{
		URL:    c.urls.Ledger + "/v2/registrar/persona",
		Method: host.MethodGet,
	}, func(resp host.Response) {
		c.onRegistrar(gen, resp)
	})
}

func (c *Client) onRegistrar(gen uint64, resp host.Response) {
	c.logResponse("onRegistrar", resp)
	if gen != c.generation {
		c.log.Debug("stale registrar response dropped", "generation", gen)
		return
	}
	if !resp.OK() {
		c.sink.OnWalletCreated(resultFor(resp))
		return
	}

	var reg registrarResponse
	if err := json.Unmarshal([]byte(resp.Body), &reg); err != nil || reg.RegistrarVK == "" {
		c.log.Error("bad registrar response", "error", err)
		c.sink.OnWalletCreated(model.ResultBadRegistrationResponse)
		return
	}

	personaID := c.host.GenerateGUID()
	seed := codec.HashWithDomain(codec.DomainSeed, []byte(c.host.GenerateGUID()))
	body, err := json.Marshal(registrationRequest{
		Label:     personaID,
		Currency:  "BAT",
		PublicKey: recoveryKey(seed),
	})
	if err != nil {
		c.sink.OnWalletCreated(model.ResultLedgerError)
		return
	}

	c.host.LoadURL(host.Request{
		URL:         c.urls.Ledger + "/v2/registrar/persona/" + c.host.URIEncode(personaID),
		Body:        string(body),
		ContentType: "application/json; charset=utf-8",
		Method:      host.MethodPost,
	}, func(resp host.Response) {
		c.onRegistered(gen, personaID, reg.RegistrarVK, seed, resp)
	})
}

func (c *Client) onRegistered(gen uint64, personaID, registrarVK, seed string, resp host.Response) {
	c.logResponse("onRegistered", resp)
	if gen != c.generation {
		c.log.Debug("stale registration response dropped", "generation", gen)
		return
	}
	if !resp.OK() {
		c.sink.OnWalletCreated(resultFor(resp))
		return
	}

	var reg registrationResponse
	if err := json.Unmarshal([]byte(resp.Body), &reg); err != nil || reg.Wallet.PaymentID == "" {
		c.log.Error("bad registration response", "error", err)
		c.sink.OnWalletCreated(model.ResultBadRegistrationResponse)
		return
	}

	w := c.ledger.Wallet()
	w.PaymentID = reg.Wallet.PaymentID
	w.PersonaID = personaID
	w.UserID = reg.UserID
	w.RegistrarVK = registrarVK
	w.RecoverySeed = seed
	w.Addresses = addressesFrom(reg.Wallet.Addresses)
	w.FeeAmount = reg.Parameters.Fee
	w.Days = reg.Parameters.Days
	c.ledger.SetWallet(w)
	c.ledger.SetBootStamp(c.now())

	c.log.Info("wallet created", "payment_id", w.PaymentID)
	c.sink.OnWalletCreated(model.ResultWalletCreated)
}

func addressesFrom(m map[string]string) state.Addresses {
	get := func(k string) string {
		for key, v := range m {
			if strings.EqualFold(key, k) {
				return v
			}
		}
		return ""
	}
	return state.Addresses{
		BAT: get("BAT"),
		BTC: get("BTC"),
		ETH: get("ETH"),
		LTC: get("LTC"),
	}
}
