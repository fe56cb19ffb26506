// Package history keeps a bounded, in-memory ledger of predictor results and
// derives accuracy and usage statistics from it.
//
// The ledger holds at most Capacity records. Writes never fail; once full the
// oldest record is dropped. Record ids are opaque, unique and strictly
// increasing, and are not positions in the ledger.
package history
