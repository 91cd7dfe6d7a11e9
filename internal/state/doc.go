// Package state holds the persisted ledger record: wallet identity,
// settings, grants, and in-flight reconciliation records.
//
// Ledger is pure data plus accessors. It performs no I/O; callers encode
// it to a blob with Encode and hand the blob to the host for storage.
// Every other component reads and mutates persisted entities only through
// the accessors defined here.
//
// Invariants enforced by the accessors:
//   - No two reconcile records share a viewing id.
//   - At most one AUTO_CONTRIBUTE record is active at a time.
package state
