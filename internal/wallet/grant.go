package wallet

import (
	"encoding/json"
	"net/url"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
)

type solveRequest struct {
	PromotionID     string `json:"promotionId"`
	CaptchaResponse string `json:"captchaResponse"`
}

// CaptchaHintHeader carries the captcha's hint alongside the image body.
const CaptchaHintHeader = "Captcha-Hint"

// FetchGrant asks whether a promotion is available. Both lang and
// paymentID may be empty; an empty paymentID means the wallet's own.
// The outcome arrives through Sink.OnGrant; NOT_FOUND means no promotion.
func (c *Client) FetchGrant(lang, paymentID string) {
	if paymentID == "" {
		paymentID = c.ledger.PaymentID()
	}
	q := url.Values{}
	if lang != "" {
		q.Set("lang", lang)
	}
	if paymentID != "" {
		q.Set("paymentId", paymentID)
	}
	target := c.urls.Ledger + "/v2/grants"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	gen := c.generation
	c.host.LoadURL(host.Request{URL: target, Method: host.MethodGet}, func(resp host.Response) {
		c.onGrant(gen, resp)
	})
}

func (c *Client) onGrant(gen uint64, resp host.Response) {
	c.logResponse("onGrant", resp)
	if gen != c.generation {
		return
	}

	result := resultFor(resp)
	if result == model.ResultOK || result == model.ResultNotFound {
		c.ledger.SetLastGrantCheck(c.now())
	}
	if result != model.ResultOK {
		c.sink.OnGrant(result, model.Grant{})
		return
	}

	var g grantResponse
	if err := json.Unmarshal([]byte(resp.Body), &g); err != nil || g.PromotionID == "" {
		c.log.Error("bad grant response", "error", err)
		c.sink.OnGrant(model.ResultLedgerError, model.Grant{})
		return
	}
	grant := model.Grant{PromotionID: g.PromotionID}
	c.ledger.SetCurrentGrant(grant)
	c.sink.OnGrant(model.ResultOK, grant)
}

// GetGrantCaptcha fetches the captcha guarding the current promotion.
// The image and hint arrive through Sink.OnGrantCaptcha; both are empty
// on failure.
func (c *Client) GetGrantCaptcha() {
	paymentID := c.ledger.PaymentID()
	if paymentID == "" {
		c.sink.OnGrantCaptcha("", "")
		return
	}
	c.host.LoadURL(host.Request{
		URL:    c.urls.Ledger + "/v2/captchas/" + c.host.URIEncode(paymentID),
		Method: host.MethodGet,
	}, func(resp host.Response) {
		c.logResponse("onGrantCaptcha", resp)
		if paymentID != c.ledger.PaymentID() {
			return
		}
		if !resp.OK() {
			c.sink.OnGrantCaptcha("", "")
			return
		}
		c.sink.OnGrantCaptcha(resp.Body, resp.Header(CaptchaHintHeader))
	})
}

// SolveGrantCaptcha submits the captcha solution for the current
// promotion. On success the redeemed grant is added to the ledger and
// reported through Sink.OnGrantFinish.
func (c *Client) SolveGrantCaptcha(solution string) {
	paymentID := c.ledger.PaymentID()
	current := c.ledger.CurrentGrant()
	if paymentID == "" || current.PromotionID == "" {
		c.sink.OnGrantFinish(model.ResultNotFound, model.Grant{})
		return
	}

	body, err := json.Marshal(solveRequest{
		PromotionID:     current.PromotionID,
		CaptchaResponse: solution,
	})
	if err != nil {
		c.sink.OnGrantFinish(model.ResultLedgerError, model.Grant{})
		return
	}

	c.host.LoadURL(host.Request{
		URL:         c.urls.Ledger + "/v2/grants/" + c.host.URIEncode(paymentID),
		Body:        string(body),
		ContentType: "application/json; charset=utf-8",
		Method:      host.MethodPut,
	}, func(resp host.Response) {
		c.onGrantFinish(paymentID, current.PromotionID, resp)
	})
}

func (c *Client) onGrantFinish(paymentID, promotionID string, resp host.Response) {
	c.logResponse("onGrantFinish", resp)
	if paymentID != c.ledger.PaymentID() {
		return
	}
	if !resp.OK() {
		c.sink.OnGrantFinish(resultFor(resp), model.Grant{PromotionID: promotionID})
		return
	}

	var g grantResponse
	if err := json.Unmarshal([]byte(resp.Body), &g); err != nil {
		c.log.Error("bad grant finish response", "error", err)
		c.sink.OnGrantFinish(model.ResultLedgerError, model.Grant{PromotionID: promotionID})
		return
	}
	grant := g.grant()
	grant.PromotionID = promotionID

	c.ledger.AddGrant(grant)
	c.ledger.SetCurrentGrant(model.Grant{})
	c.sink.OnGrantFinish(model.ResultOK, grant)
}
