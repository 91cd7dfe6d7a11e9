// Package pebblestore keeps the engine's state blobs in a Pebble
// key-value database. It is an alternative to the SQLite blob table for
// hosts that want a log-structured store for the frequently rewritten
// ledger and publisher state documents.
package pebblestore
