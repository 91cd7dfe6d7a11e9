package schedule

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Window is a closed range of seconds a retry delay is drawn from.
type Window struct {
	Min uint64
	Max uint64
}

var (
	// PublisherListRetry bounds the retry delay after a failed publisher
	// list download or save.
	PublisherListRetry = Window{Min: 300, Max: 3600}

	// GrantRetry bounds the retry delay after a failed grant check.
	GrantRetry = Window{Min: 300, Max: 600}
)

// Default refresh intervals, in seconds.
const (
	PublisherListInterval uint64 = 3 * 24 * 60 * 60
	GrantInterval         uint64 = 24 * 60 * 60
	ReconcileInterval     uint64 = 30 * 24 * 60 * 60
)

// Jitter returns a whole number of seconds drawn uniformly from w,
// inclusive at both ends.
//
// The backoff is centred so its randomized interval spans [Min, Max+1)
// seconds; truncating to the second gives every value in the window the
// same share. Multiplier 1 keeps the window fixed, so every call is an
// independent sample.
func (w Window) Jitter() uint64 {
	if w.Max <= w.Min {
		return w.Min
	}
	lo := time.Duration(w.Min) * time.Second
	hi := time.Duration(w.Max+1)*time.Second - 1
	center := lo + (hi-lo)/2

	b := &backoff.ExponentialBackOff{
		InitialInterval:     center,
		RandomizationFactor: float64(hi-lo) / 2 / float64(center),
		Multiplier:          1,
		MaxInterval:         hi,
	}
	b.Reset()
	return w.clamp(uint64(b.NextBackOff() / time.Second))
}

// Contains reports whether seconds lies in w.
func (w Window) Contains(seconds uint64) bool {
	return seconds >= w.Min && seconds <= w.Max
}

func (w Window) clamp(seconds uint64) uint64 {
	switch {
	case seconds < w.Min:
		return w.Min
	case seconds > w.Max:
		return w.Max
	default:
		return seconds
	}
}

// NextDelay returns how long to wait before the next refresh given the
// last successful load and the current time, both in seconds since epoch.
//
//   - never loaded, or a last load in the future: fire now
//   - loaded this very second: wait a full interval
//   - loaded within the interval: wait the remainder
//   - otherwise the data is stale: fire now
func NextDelay(last, now, interval uint64) uint64 {
	if last == 0 || last > now {
		return 0
	}
	if last == now {
		return interval
	}
	elapsed := now - last
	if elapsed < interval {
		return interval - elapsed
	}
	return 0
}
