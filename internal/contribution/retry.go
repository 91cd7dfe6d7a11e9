package contribution

import (
	"errors"
	"fmt"
)

// DefaultRetryDelays is the wait, in seconds, before each re-send of a
// failed reconcile: 1m, 5m, 15m, 1h, 6h.
var DefaultRetryDelays = []uint64{60, 300, 900, 3600, 21600}

// RetryPolicy bounds how often a failed reconcile is re-sent.
//
// Retry levels count failures and start at 1. Level n waits the nth delay
// in the table; a level past the end of the table is exhausted and the
// record fails for good.
type RetryPolicy struct {
	delays []uint64
}

// NewRetryPolicy creates a policy from a delay table. An empty table
// means failures are never retried.
func NewRetryPolicy(delays []uint64) RetryPolicy {
	return RetryPolicy{delays: append([]uint64(nil), delays...)}
}

// Delay returns the wait before the re-send at the given retry level.
//
// Returns RetriesExhaustedError once level exceeds the table.
func (p RetryPolicy) Delay(viewingID string, level int) (uint64, error) {
	if level < 1 {
		level = 1
	}
	if level > len(p.delays) {
		return 0, &RetriesExhaustedError{
			ViewingID: viewingID,
			Level:     level,
			Limit:     len(p.delays),
		}
	}
	return p.delays[level-1], nil
}

// MaxRetries returns how many re-sends the policy allows.
func (p RetryPolicy) MaxRetries() int {
	return len(p.delays)
}

// RetriesExhaustedError is returned when a reconcile has failed more often
// than the policy allows. The record is removed rather than re-sent.
type RetriesExhaustedError struct {
	ViewingID string
	Level     int
	Limit     int
}

// Error implements the error interface.
func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("reconcile %s exhausted retries: level %d > %d limit",
		e.ViewingID, e.Level, e.Limit)
}

// IsRetriesExhausted returns true if the error is a RetriesExhaustedError.
func IsRetriesExhausted(err error) bool {
	var re *RetriesExhaustedError
	return errors.As(err, &re)
}
