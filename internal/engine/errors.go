package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/rewards/internal/model"
)

// RuntimeError is an API call the orchestrator rejected synchronously.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeAlreadyInProgress rejects a second Initialize or CreateWallet
	// while one is running.
	ErrCodeAlreadyInProgress RuntimeErrorCode = "ALREADY_IN_PROGRESS"

	// ErrCodeAlreadyInitialized rejects CreateWallet once a wallet is
	// loaded.
	ErrCodeAlreadyInitialized RuntimeErrorCode = "ALREADY_INITIALIZED"

	// ErrCodeInvalidArgument rejects a call with a missing or malformed
	// argument.
	ErrCodeInvalidArgument RuntimeErrorCode = "INVALID_ARGUMENT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Result maps the error onto the host result taxonomy.
func (e *RuntimeError) Result() model.Result {
	if e.Code == ErrCodeAlreadyInProgress {
		return model.ResultAlreadyInProgress
	}
	return model.ResultLedgerError
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsAlreadyInProgress returns true if err rejected a duplicate start.
// Uses errors.As to handle wrapped errors.
func IsAlreadyInProgress(err error) bool {
	return hasCode(err, ErrCodeAlreadyInProgress)
}

// IsAlreadyInitialized returns true if err rejected wallet creation on an
// initialized engine.
func IsAlreadyInitialized(err error) bool {
	return hasCode(err, ErrCodeAlreadyInitialized)
}

// IsInvalidArgument returns true if err rejected a malformed call.
func IsInvalidArgument(err error) bool {
	return hasCode(err, ErrCodeInvalidArgument)
}

// logEventError logs a failed event with enough context to find it in a
// trace of the loop.
func logEventError(log *slog.Logger, event Event, err error) {
	log.Error("event processing failed",
		"name", event.Name,
		"seq", event.Seq,
		"error", err,
	)
}
