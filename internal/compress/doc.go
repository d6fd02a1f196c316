// Package compress drives batch compression runs over the media library.
//
// A run is started with a Job naming a scope (one file, one category or the
// whole library) and an encoder family. The orchestrator resolves the scope
// into candidate files, skips those already recorded in the history ledger,
// and for each remaining file probes its height, derives encoder settings,
// encodes into a per-run scratch directory and finally replaces the original
// with the encoded copy. Files are processed strictly one at a time.
//
// Only one run is active per Orchestrator. Cancel stops the run at the next
// file boundary and kills the running encoder immediately; a file move that
// is already in progress is allowed to finish.
package compress
