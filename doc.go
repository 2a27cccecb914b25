// Package searchstore is the in-memory storage core of a search
// engine component. It bundles two tightly related mechanisms:
//
//   - predicate: a generation-reclaimed entry arena storing compact
//     interval lists, with a packed-reference codec that inlines
//     single small values and a deduplicating reference cache that
//     collapses identical payloads to one allocation.
//
//   - docstore: a read-through document cache over a pluggable
//     backing store, with cumulative hit/miss statistics and explicit
//     capacity and compression policy.
//
// The Store type composes both behind one construction and capacity
// reporting surface; the subpackages are usable on their own.
package searchstore
