package model

// Result is the outcome code carried by every asynchronous completion and
// every notification raised toward the host.
type Result string

const (
	// ResultOK indicates success.
	ResultOK Result = "OK"

	// ResultLedgerError is a generic failure with no better classification.
	ResultLedgerError Result = "LEDGER_ERROR"

	// ResultTransientIO indicates a network or storage call failed. Refresh
	// flows retry these through a jittered timer, never inline.
	ResultTransientIO Result = "TRANSIENT_IO_FAILURE"

	// ResultMalformedState indicates a persisted blob failed to parse.
	ResultMalformedState Result = "MALFORMED_STATE"

	// ResultInvalidLedgerState is the initialization failure raised when the
	// ledger-state blob cannot be parsed.
	ResultInvalidLedgerState Result = "INVALID_LEDGER_STATE"

	// ResultInvalidPublisherState is the initialization failure raised when
	// the publisher-state blob cannot be parsed.
	ResultInvalidPublisherState Result = "INVALID_PUBLISHER_STATE"

	// ResultAlreadyInProgress rejects a duplicate start of a single-flight
	// operation.
	ResultAlreadyInProgress Result = "ALREADY_IN_PROGRESS"

	// ResultNotFound is a non-error terminal state (e.g. no grant available).
	ResultNotFound Result = "NOT_FOUND"

	// ResultWalletCreated reports a freshly registered wallet.
	ResultWalletCreated Result = "WALLET_CREATED"

	// ResultNotEnoughFunds rejects an auto-contribution the balance cannot cover.
	ResultNotEnoughFunds Result = "NOT_ENOUGH_FUNDS"

	// ResultZeroWeight is fatal: a contribution whose directions carry no weight.
	ResultZeroWeight Result = "ZERO_WEIGHT"

	// ResultBadRegistrationResponse indicates the registrar answered with a
	// payload the wallet client could not use.
	ResultBadRegistrationResponse Result = "BAD_REGISTRATION_RESPONSE"
)

// OK reports whether r is ResultOK.
func (r Result) OK() bool {
	return r == ResultOK
}

// Initialized reports whether r completes wallet initialization
// successfully (either a loaded wallet or a freshly created one).
func (r Result) Initialized() bool {
	return r == ResultOK || r == ResultWalletCreated
}

// Retriable reports whether a failure with this result may be retried by
// the jittered refresh timers. Fatal and terminal results are never retried.
func (r Result) Retriable() bool {
	switch r {
	case ResultTransientIO, ResultLedgerError:
		return true
	default:
		return false
	}
}
