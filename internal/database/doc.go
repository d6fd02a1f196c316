// Package database provides the SQLite-backed settings store.
//
// The store holds small key/value settings, most importantly the
// user-selected library root, and a log of finished compression runs. It
// uses github.com/mattn/go-sqlite3 in WAL mode with a busy timeout, so the
// HTTP handlers and the orchestrator's completion callback can write
// concurrently.
//
// # Schema
//
//	settings(key TEXT PRIMARY KEY, value TEXT NOT NULL)
//	compression_runs(id, started_at, duration_ms, scope, category, codec,
//	                 total, processed, failed, skipped, cancelled)
//
// Schema changes are applied by numbered migrations recorded in the
// schema_version table.
package database
