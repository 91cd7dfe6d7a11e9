// Package codec owns the structured-text encoding of every persisted blob.
//
// Blobs are canonical JSON:
//   - Object keys sorted by UTF-16 code units
//   - No HTML escaping (< > & are written literally)
//   - Strings NFC normalized at the serialization boundary
//   - Numbers written exactly as encoding/json produced them
//
// Canonical output makes blobs byte-stable across save/load cycles, which
// is what the golden tests in the state and publisher packages rely on.
// Every blob carries a top-level schema version; see Envelope.
package codec
