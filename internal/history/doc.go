// Package history keeps the ledger of files that have already been
// transcoded, so that repeated compression runs skip them.
//
// The ledger is a set of absolute paths persisted as a JSON array. Every
// mutation rewrites the whole file; the in-memory set is updated first, so a
// failed write still prevents a repeat within the same process.
package history
