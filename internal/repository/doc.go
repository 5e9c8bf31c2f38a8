// Package repository defines the storage interfaces for topowatch.
//
// The live graph is held in memory only. What is persisted is the cycle
// journal: one row per fetch and reconcile cycle with its outcome, timing
// and counts. The implementation is in the sqlite subpackage and uses the
// pure Go modernc.org/sqlite driver with WAL mode.
//
// # Testing
//
// The sqlite journal is tested against in-memory databases.
package repository
