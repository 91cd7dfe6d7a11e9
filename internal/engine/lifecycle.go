package engine

import (
	"github.com/roach88/rewards/internal/model"
)

// Initialize loads persisted state. The outcome is reported through the
// host's OnWalletInitialized: OK once both blobs load, NOT_FOUND when no
// wallet exists yet, or INVALID_LEDGER_STATE / INVALID_PUBLISHER_STATE
// when a blob does not parse. Nothing is retried automatically.
//
// Returns an ALREADY_IN_PROGRESS error while a previous Initialize or
// CreateWallet is running, and nil without doing anything once
// initialized.
func (e *Engine) Initialize() error {
	switch e.lifecycle {
	case Initializing:
		return &RuntimeError{Code: ErrCodeAlreadyInProgress, Message: "initialization already running"}
	case Initialized:
		e.log.Debug("already initialized")
		return nil
	}

	e.lifecycle = Initializing
	e.log.Info("initializing")
	e.host.LoadLedgerState(e.onLedgerStateLoaded)
	return nil
}

func (e *Engine) onLedgerStateLoaded(result model.Result, blob string) {
	switch {
	case result.OK():
		if err := e.ledger.LoadState(blob); err != nil {
			e.log.Error("ledger state loaded but failed to parse", "error", err)
			e.log.Debug("failed ledger state", "blob", blob)
			e.walletInitialized(model.ResultInvalidLedgerState)
			return
		}
		e.host.LoadPublisherState(e.onPublisherStateLoaded)
	case result == model.ResultNotFound:
		e.log.Info("no ledger state, wallet not created yet")
		e.walletInitialized(model.ResultNotFound)
	default:
		e.log.Error("failed to load ledger state", "result", result)
		e.walletInitialized(result)
	}
}

func (e *Engine) onPublisherStateLoaded(result model.Result, blob string) {
	switch {
	case result.OK():
		if err := e.tracker.LoadState(blob); err != nil {
			e.log.Error("publisher state loaded but failed to parse", "error", err)
			e.log.Debug("failed publisher state", "blob", blob)
			result = model.ResultInvalidPublisherState
		}
	case result == model.ResultNotFound:
		// A wallet without recorded attention yet.
		result = model.ResultOK
	default:
		e.log.Error("failed to load publisher state", "result", result)
	}

	e.walletInitialized(result)
	if result.OK() {
		e.contrib.OnStartUp()
	}
}

// walletInitialized settles the lifecycle and, on success, starts the
// background refreshes.
func (e *Engine) walletInitialized(result model.Result) {
	switch result {
	case model.ResultOK, model.ResultWalletCreated:
		e.lifecycle = Initialized
	case model.ResultNotFound:
		// CreateWallet is the way forward.
		e.lifecycle = Uninitialized
	default:
		e.lifecycle = InitFailed
	}
	e.log.Info("wallet initialized", "result", result, "lifecycle", e.lifecycle)
	e.host.OnWalletInitialized(result)

	if e.lifecycle != Initialized {
		return
	}
	e.host.LoadPublisherList(e.onPublisherListLoaded)
	e.contrib.SetReconcileTimer()
	e.RefreshGrant(false)
}

func (e *Engine) onPublisherListLoaded(result model.Result, blob string) {
	switch {
	case result.OK():
		if err := e.tracker.LoadPublisherList(blob); err != nil {
			e.log.Error("publisher list loaded but failed to parse", "error", err)
		}
	case result == model.ResultNotFound:
		e.log.Debug("no stored publisher list")
	default:
		e.log.Error("failed to load publisher list", "result", result)
	}
	e.RefreshPublishersList(false)
}

// CreateWallet registers a new wallet. The outcome is reported through
// OnWalletInitialized with WALLET_CREATED on success.
//
// Returns an ALREADY_IN_PROGRESS error while initialization or another
// creation is running. On an initialized engine it reports LEDGER_ERROR
// to the host and returns an ALREADY_INITIALIZED error.
func (e *Engine) CreateWallet() error {
	switch e.lifecycle {
	case Initializing:
		return &RuntimeError{Code: ErrCodeAlreadyInProgress, Message: "wallet creation already running"}
	case Initialized:
		e.host.OnWalletInitialized(model.ResultLedgerError)
		return &RuntimeError{Code: ErrCodeAlreadyInitialized, Message: "wallet already initialized"}
	}
	e.lifecycle = Initializing
	e.wallet.RegisterPersona()
	return nil
}
