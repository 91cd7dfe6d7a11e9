// Package schedule computes when periodic refreshes fire.
//
// Two kinds of delay exist. A refresh that succeeded (or never ran) waits
// out the remainder of its interval, measured from the last successful
// load. A refresh that failed waits a delay drawn uniformly from a fixed
// window. The window never widens across consecutive failures: the retry
// policy is bounded jitter, not exponential backoff.
package schedule
