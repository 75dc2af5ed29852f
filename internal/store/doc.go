// Package store defines the persistence contract of the cascade engine and
// ships two reference implementations: an in-memory store and a store
// backed by a single YAML document.
//
// Both use optimistic concurrency. Every project carries a version that
// increments on each successful Persist; a Persist whose expected version no
// longer matches the stored one fails with ErrConflict and writes nothing.
package store
