// Package repository defines durable storage for engine snapshots.
//
// A SnapshotStore saves the full state after every successful mutation
// and hands it back as untrusted records on startup, where the registry
// repairs and seeds them.
//
// # Implementations
//
//   - sqlstore: one row per device on SQLite (modernc.org/sqlite, WAL
//     mode) or PostgreSQL (pgx), replaced in a single transaction
//   - file: a JSON or YAML document written atomically by rename
//
// Both return ErrNoSnapshot when nothing has been saved yet.
package repository
