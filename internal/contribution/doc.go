// Package contribution runs the reconcile state machine that settles
// contributions against the rewards ledger.
//
// Each contribution is a state.ReconcileRecord keyed by a viewing id. A
// record moves INITIATED → DIRECTIONS_COMPUTED → REQUEST_SENT and then to
// COMPLETED or FAILED. FAILED records are re-sent from a retry timer until
// the retry table runs out. The ledger is persisted before every request so
// a restart resumes from the recorded step instead of starting over.
//
// The Engine is not safe for concurrent use; the orchestrator drives it
// from its event loop.
package contribution
