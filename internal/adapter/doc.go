// Package adapter implements the snapshot sources that feed topowatch.
//
// A Source fetches one complete snapshot of the known nodes per call.
// A failed fetch returns an error and the caller keeps the previous graph.
//
// # Sources
//
// HTTPSource polls a discovery server's node list over HTTP.
//
// FileSource reads a JSON or YAML snapshot file and can watch it for changes.
//
// NmapSource scans CIDR targets with nmap and synthesizes a snapshot in which
// each scanned network is an intermediate node and each live host is a
// terminal node declaring the network it was found on.
//
// SSHSource runs a command on a remote discovery host and decodes its output.
//
// # Polling
//
// Poller drives cycles against one source: once on start, then on a fixed
// interval, and on demand through Trigger. Watchable sources trigger a cycle
// whenever their contents change.
package adapter
