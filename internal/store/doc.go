// Package store provides SQLite-backed persistence for a local rewards
// host.
//
// The store keeps two kinds of data:
//   - Blobs: the opaque ledger state, publisher state and publisher list
//     documents the engine encodes, keyed by name
//   - Records: publisher attention rows, media key mappings, settled
//     contribution legs and recurring pledges, which the host queries
//     with filters and pagination
//
// Amounts are stored as decimal strings so probi values survive without
// float rounding. List queries order by primary key so pagination is
// stable across calls.
//
// Connections open in WAL mode with synchronous=NORMAL and a five second
// busy timeout. The schema version lives in PRAGMA user_version; Open
// refuses a database stamped by a newer release.
package store
