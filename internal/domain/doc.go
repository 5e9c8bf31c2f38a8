// Package domain defines the core types of the topowatch topology engine.
//
// This package contains the records decoded from discovery snapshots and the
// live graph elements built from them.
//
// # Core Types
//
// Record is one node record from a snapshot. It carries a stable identity
// (NID), an optional list of neighbor declarations (Edges), optional display
// attributes (D) and any other field the source reports, passed through
// unexamined. Field presence is tracked so merges only overwrite what the
// incoming record carries.
//
// Node is a live graph element. A Known node carries a record; a Placeholder
// was created from another node's neighbor declaration and carries only an
// identity until its own record arrives.
//
// Edge is a stored link between a terminal node and a declared neighbor,
// referenced by identity. Published edges and derived Shortcuts are pairs of
// positions into the ordered node collection.
//
// Publication is the immutable graph handed to readers after each cycle, and
// CycleRecord is its journal entry.
//
// # Design Principles
//
// - No database or external dependencies
// - Terminal and visible classification is derived from current fields
// - Published values are copies; nothing a reader holds aliases the live graph
package domain
