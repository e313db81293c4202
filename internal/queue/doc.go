// Package queue persists stories and their reading chunks in SQLite and
// exposes helpers for driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, status transitions, and the delivery bookkeeping that guarantees a
// chunk is sent at most once. Stories capture the raw submission so a failed
// story can be reprocessed from scratch on retry.
//
// The database is long-lived: sent chunks stay around as the delivery record.
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
//
// Treat this package as the single source of truth for queue semantics; when
// you add new statuses or fields, update schema.sql and bump schemaVersion.
package queue
