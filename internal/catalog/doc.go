// Package catalog maintains the shared audio catalog document: an ordered
// JSON collection of records, one per published artifact. Mutations are pure
// collection transforms; the Synchronizer wraps them in a fetch, hash-skip,
// overwrite, verify protocol against the storage backend.
package catalog
