// Package service implements the topowatch cycle driver.
//
// TopologyService owns the single live topology store. Each cycle fetches a
// snapshot from a source, reconciles it, derives the collapsed shortcut
// edges and publishes an immutable domain.Publication. Readers such as the
// HTTP handlers only ever see publications, never the store itself.
//
// # Cycles
//
// Cycles are serialized by a mutex. A fetch failure skips reconciliation and
// keeps the previous graph. A fetch that completes after a newer fetch has
// started is superseded and its snapshot is discarded. Every cycle is
// counted in metrics, kept in a short in-memory history and, when a Journal
// is configured, recorded there.
//
// # Event System
//
// Cycles publish events via EventBus for real-time updates to connected
// clients via Server-Sent Events (SSE). A discarded fetch emits
// cycle_superseded.
package service
