// Package storage persists tracking history.
//
// Every tracked result becomes a row in tracking_history, with a JSON
// snapshot of the full reconciled result in notes, and a shorter row in
// ip_history. Rows are never updated: Clear is the only way to remove
// them.
//
// SQLite is a default backend. PostgreSQL works with the same schema,
// queries are written with ? placeholders and rebound for lib/pq.
package storage
