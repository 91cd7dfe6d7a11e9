package wallet

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
)

type recoveryResponse struct {
	PaymentID string `json:"paymentId"`
}

// RecoverWallet replaces the wallet with the one registered under
// passphrase. The outcome arrives through Sink.OnRecoverWallet.
func (c *Client) RecoverWallet(passphrase string) {
	seed := normalizePassphrase(passphrase)
	if seed == "" {
		c.sink.OnRecoverWallet(model.ResultLedgerError, decimal.Zero, nil)
		return
	}

	c.generation++
	gen := c.generation

	c.log.Info("recovering wallet")
	c.host.LoadURL(host.Request{
		URL:    c.urls.Ledger + "/v2/wallet?publicKey=" + c.host.URIEncode(recoveryKey(seed)),
		Method: host.MethodGet,
	}, func(resp host.Response) {
		c.onRecoveryLookup(gen, seed, resp)
	})
}

func (c *Client) onRecoveryLookup(gen uint64, seed string, resp host.Response) {
	c.logResponse("onRecoveryLookup", resp)
	if gen != c.generation {
		return
	}
	if !resp.OK() {
		c.failRecovery(resultFor(resp))
		return
	}
	var rec recoveryResponse
	if err := json.Unmarshal([]byte(resp.Body), &rec); err != nil || rec.PaymentID == "" {
		c.log.Error("bad recovery response", "error", err)
		c.failRecovery(model.ResultLedgerError)
		return
	}

	c.host.LoadURL(c.propertiesRequest(rec.PaymentID), func(resp host.Response) {
		c.onRecoveredProperties(gen, seed, rec.PaymentID, resp)
	})
}

func (c *Client) onRecoveredProperties(gen uint64, seed, paymentID string, resp host.Response) {
	c.logResponse("onRecoveredProperties", resp)
	if gen != c.generation {
		return
	}
	if !resp.OK() {
		c.failRecovery(resultFor(resp))
		return
	}
	props, err := parseProperties(resp.Body, c.ledger.Settings().ContributionAmount)
	if err != nil {
		c.log.Error("bad recovered wallet properties", "error", err)
		c.failRecovery(model.ResultLedgerError)
		return
	}

	c.ledger.SetPaymentID(paymentID)
	c.ledger.SetRecoverySeed(seed)
	c.ledger.SetWalletProperties(props)

	c.log.Info("wallet recovered", "payment_id", paymentID)
	c.sink.OnRecoverWallet(model.ResultOK, props.Balance, props.Grants)
}

func (c *Client) failRecovery(result model.Result) {
	c.log.Error("failed to recover wallet", "result", result)
	if result.OK() || result == model.ResultNotFound {
		result = model.ResultLedgerError
	}
	c.sink.OnRecoverWallet(result, decimal.Zero, nil)
}
