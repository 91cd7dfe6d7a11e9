package wallet

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
)

type grantResponse struct {
	PromotionID string `json:"promotionId"`
	AltCurrency string `json:"altcurrency"`
	Probi       string `json:"probi"`
	ExpiryTime  uint64 `json:"expiryTime"`
}

func (g grantResponse) grant() model.Grant {
	return model.Grant{
		PromotionID: g.PromotionID,
		AltCurrency: g.AltCurrency,
		Probi:       g.Probi,
		ExpiryTime:  g.ExpiryTime,
	}
}

type propertiesResponse struct {
	AltCurrency string                     `json:"altcurrency"`
	Probi       string                     `json:"probi"`
	Balance     decimal.Decimal            `json:"balance"`
	Rates       map[string]decimal.Decimal `json:"rates"`
	Parameters  struct {
		Choices []decimal.Decimal `json:"choices"`
		Range   []decimal.Decimal `json:"range"`
		Days    uint32            `json:"days"`
	} `json:"parameters"`
	Grants []grantResponse `json:"grants"`
}

// parseProperties decodes a wallet properties response. The fee is the
// user's monthly contribution amount, not a server value.
func parseProperties(body string, fee decimal.Decimal) (model.WalletProperties, error) {
	var resp propertiesResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return model.WalletProperties{}, fmt.Errorf("parse wallet properties: %w", err)
	}
	props := model.WalletProperties{
		AltCurrency: resp.AltCurrency,
		Probi:       resp.Probi,
		Balance:     resp.Balance,
		Rates:       resp.Rates,
		Choices:     resp.Parameters.Choices,
		Range:       resp.Parameters.Range,
		Days:        resp.Parameters.Days,
		FeeAmount:   fee,
	}
	for _, g := range resp.Grants {
		props.Grants = append(props.Grants, g.grant())
	}
	return props, nil
}

func (c *Client) propertiesRequest(paymentID string) host.Request {
	return host.Request{
		URL:    c.urls.Balance + "/v2/wallet/" + c.host.URIEncode(paymentID) + "?refresh=true",
		Method: host.MethodGet,
	}
}

// FetchWalletProperties refreshes balance, rates and grants. The outcome
// arrives through Sink.OnWalletProperties.
func (c *Client) FetchWalletProperties() {
	paymentID := c.ledger.PaymentID()
	if paymentID == "" {
		c.sink.OnWalletProperties(model.ResultLedgerError, nil)
		return
	}
	c.host.LoadURL(c.propertiesRequest(paymentID), func(resp host.Response) {
		c.onWalletProperties(paymentID, resp)
	})
}

func (c *Client) onWalletProperties(paymentID string, resp host.Response) {
	c.logResponse("onWalletProperties", resp)
	if paymentID != c.ledger.PaymentID() {
		c.log.Debug("wallet properties for replaced wallet dropped", "payment_id", paymentID)
		return
	}
	if !resp.OK() {
		c.sink.OnWalletProperties(resultFor(resp), nil)
		return
	}
	props, err := parseProperties(resp.Body, c.ledger.Settings().ContributionAmount)
	if err != nil {
		c.log.Error("bad wallet properties", "error", err)
		c.sink.OnWalletProperties(model.ResultLedgerError, nil)
		return
	}
	c.ledger.SetWalletProperties(props)
	c.sink.OnWalletProperties(model.ResultOK, &props)
}
