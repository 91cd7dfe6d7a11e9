package engine

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/model"
)

// FetchWalletProperties refreshes balance, rates and grants; the result
// reaches the host through OnWalletProperties.
func (e *Engine) FetchWalletProperties() {
	e.wallet.FetchWalletProperties()
}

// FetchGrant checks for an available promotion. Empty arguments use the
// wallet's own payment id and the server's default language.
func (e *Engine) FetchGrant(lang, paymentID string) {
	e.wallet.FetchGrant(lang, paymentID)
}

// GetGrantCaptcha fetches the captcha guarding the current promotion.
func (e *Engine) GetGrantCaptcha() {
	e.wallet.GetGrantCaptcha()
}

// SolveGrantCaptcha claims the current promotion.
func (e *Engine) SolveGrantCaptcha(solution string) {
	e.wallet.SolveGrantCaptcha(solution)
}

// RecoverWallet replaces the wallet with the one behind passphrase.
func (e *Engine) RecoverWallet(passphrase string) {
	e.wallet.RecoverWallet(passphrase)
}

// WalletPassphrase returns the recovery passphrase of the current wallet.
func (e *Engine) WalletPassphrase() string {
	return e.wallet.Passphrase()
}

// walletSink persists wallet outcomes and forwards them to the host.
type walletSink struct{ e *Engine }

func (s walletSink) OnWalletCreated(result model.Result) {
	e := s.e
	if result == model.ResultWalletCreated {
		e.ledger.SetRewardsEnabled(true)
		e.saveLedger()
	} else {
		e.log.Error("failed to create wallet", "result", result)
	}
	e.walletInitialized(result)
}

func (s walletSink) OnWalletProperties(result model.Result, props *model.WalletProperties) {
	if result.OK() {
		s.e.saveLedger()
	}
	s.e.host.OnWalletProperties(result, props)
}

func (s walletSink) OnGrant(result model.Result, grant model.Grant) {
	e := s.e
	e.saveLedger()
	e.RefreshGrant(result != model.ResultOK && result != model.ResultNotFound)
	e.host.OnGrant(result, grant)
}

func (s walletSink) OnGrantCaptcha(image, hint string) {
	s.e.host.OnGrantCaptcha(image, hint)
}

func (s walletSink) OnGrantFinish(result model.Result, grant model.Grant) {
	e := s.e
	if result.OK() {
		if probi, err := decimal.NewFromString(grant.Probi); err == nil {
			now := e.host.Now().UTC()
			e.tracker.SetBalanceReportItem(now.Month(), now.Year(), model.ReportGrant, probi)
		} else {
			e.log.Warn("grant without readable probi", "promotion_id", grant.PromotionID, "probi", grant.Probi)
		}
		e.saveLedger()
	}
	e.host.OnGrantFinish(result, grant)
}

func (s walletSink) OnRecoverWallet(result model.Result, balance decimal.Decimal, grants []model.Grant) {
	e := s.e
	if result.OK() {
		e.tracker.ClearAllBalanceReports()
		e.saveLedger()
	} else {
		e.log.Error("failed to recover wallet", "result", result)
	}
	// Recovery drops any grant check still in flight, so the check that
	// would have re-armed the timer never reports back.
	if e.ledger.IsWalletCreated() {
		e.RefreshGrant(false)
	}
	e.host.OnRecoverWallet(result, balance, grants)
}
