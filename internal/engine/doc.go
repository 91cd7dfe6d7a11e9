// Package engine is the ledger orchestrator: it owns the ledger state and
// wires the publisher tracker, wallet client, contribution engine and
// media attributor to the host.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Every mutation of engine state happens on one goroutine. Host callbacks,
// timer firings and API calls are posted to the Loop as closures and run
// in FIFO order. This gives:
//   - no locks around ledger, tracker or wallet state
//   - a stable order between a response and the timers it arms
//   - simple reasoning about stale callbacks
//
// Hosts that complete callbacks synchronously (tests, scenario replay)
// may call Engine methods directly without a running loop; the engine
// itself never blocks.
//
// Lifecycle:
//
//	UNINITIALIZED → INITIALIZING → {INITIALIZED | INIT_FAILED}
//
// Initialize loads the ledger blob, then the publisher blob. Only when
// both succeed does the engine load the publisher list, arm the reconcile
// timer and schedule a grant check. Load failures are reported once; the
// host calls Initialize again to retry.
//
// Timer Slots:
// The publisher-list and grant refresh timers each occupy a
// schedule.Slot. A refresh request while the slot is full is a no-op,
// so at most one of each is ever pending.
package engine
