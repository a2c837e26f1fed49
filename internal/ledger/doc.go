// Package ledger persists per-card processing state in SQLite. Every
// enhancement run records one row per card visited, so interrupted runs can
// be inspected, resumed decisions audited, and run statistics reported
// without re-reading the card collection.
//
// To add new statuses or columns, update schema.sql and bump schemaVersion.
package ledger
