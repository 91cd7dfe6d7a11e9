// Package model defines the rewards ledger data model shared by every
// component of the engine.
//
// This package contains type definitions and the result taxonomy only.
// All other internal packages import model; model imports nothing internal.
//
// Key design constraints:
//   - Monetary amounts are shopspring decimals, never floats.
//     Probi amounts that cross the wire stay decimal-as-string.
//   - Timestamps that are persisted are unix seconds (uint64).
//   - All JSON tags use snake_case.
package model
