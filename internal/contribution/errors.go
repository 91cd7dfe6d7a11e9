package contribution

import (
	"errors"
	"fmt"

	"github.com/roach88/rewards/internal/model"
)

// Error is a contribution request rejected before any state changed.
type Error struct {
	// Code identifies the rejection.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ViewingID identifies the contribution, when one was given.
	ViewingID string

	// Category is the contribution category that was requested.
	Category model.Category
}

// ErrorCode categorizes contribution errors.
type ErrorCode string

const (
	// ErrCodeAlreadyInProgress rejects a duplicate viewing id or a second
	// concurrent auto-contribution.
	ErrCodeAlreadyInProgress ErrorCode = "ALREADY_IN_PROGRESS"

	// ErrCodeZeroWeight rejects a contribution whose directions carry no
	// weight. It is fatal and never retried.
	ErrCodeZeroWeight ErrorCode = "ZERO_WEIGHT"

	// ErrCodeNotEnoughFunds rejects an auto-contribution the wallet balance
	// cannot cover.
	ErrCodeNotEnoughFunds ErrorCode = "NOT_ENOUGH_FUNDS"

	// ErrCodeInvalidRequest rejects a missing viewing id or unknown category.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ViewingID != "" {
		return fmt.Sprintf("%s: %s (viewing_id=%s, category=%s)", e.Code, e.Message, e.ViewingID, e.Category)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Result maps the error onto the host result taxonomy.
func (e *Error) Result() model.Result {
	switch e.Code {
	case ErrCodeAlreadyInProgress:
		return model.ResultAlreadyInProgress
	case ErrCodeZeroWeight:
		return model.ResultZeroWeight
	case ErrCodeNotEnoughFunds:
		return model.ResultNotEnoughFunds
	default:
		return model.ResultLedgerError
	}
}

// ResultFor maps any error returned by this package onto a result code.
// A nil error is ResultOK.
func ResultFor(err error) model.Result {
	if err == nil {
		return model.ResultOK
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Result()
	}
	return model.ResultLedgerError
}

func hasCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsAlreadyInProgress returns true if err rejected a duplicate start.
// Uses errors.As to handle wrapped errors.
func IsAlreadyInProgress(err error) bool {
	return hasCode(err, ErrCodeAlreadyInProgress)
}

// IsZeroWeight returns true if err rejected a weightless contribution.
func IsZeroWeight(err error) bool {
	return hasCode(err, ErrCodeZeroWeight)
}

// IsNotEnoughFunds returns true if err rejected an uncovered
// auto-contribution.
func IsNotEnoughFunds(err error) bool {
	return hasCode(err, ErrCodeNotEnoughFunds)
}
