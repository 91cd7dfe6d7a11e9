// Package localhost implements host.Client for running the engine as a
// standalone process.
//
// Blobs live in a BlobStore (SQLite or Pebble), records in the SQLite
// store, network requests go through net/http and timers through
// time.AfterFunc. Every callback is posted back onto the engine's event
// loop, so engine code only ever runs on the loop goroutine.
//
// Storage calls run one at a time, in call order, on a single goroutine;
// network requests run concurrently.
package localhost
