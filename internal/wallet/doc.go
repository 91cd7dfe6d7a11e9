// Package wallet drives the wallet's lifecycle against the rewards server:
// persona registration, property refreshes, recovery from a passphrase,
// and grant acquisition.
//
// Every flow is fire-and-forget. The client builds the request, hands it
// to the host, and reports the outcome to its Sink when the response
// arrives. Responses that belong to an identity the ledger no longer holds
// (a registration superseded by a recovery, say) are dropped.
//
// Wallet cryptography is not modelled. The recovery seed is a random
// value; the public key registered with the server and the lookup key used
// for recovery are domain-separated hashes of it.
package wallet
