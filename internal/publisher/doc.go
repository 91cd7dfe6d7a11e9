// Package publisher accumulates attention per publisher and decides which
// publishers are eligible for auto-contribution.
//
// The Tracker owns the publisher-state blob (accumulated durations, visit
// counts, exclusion flags and monthly balance reports) and the publisher
// list blob (the verified-publisher registry downloaded from the server).
// Both are encoded with the codec package inside a versioned envelope.
//
// A publisher is identified by the registrable domain of the pages it
// serves (example.com for www.example.com), or by a provider-scoped id for
// embedded media (youtube#channel:name). Records are never deleted; they
// are re-weighted, re-excluded, or have their durations reset once a
// contribution settles.
package publisher
