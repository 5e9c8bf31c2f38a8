// Package handler implements the HTTP API of the topowatch server.
//
// Every read endpoint answers from the latest immutable publication, so
// requests never block on a running reconciliation cycle:
//
//	GET  /api/graph          whole publication (?format=yaml)
//	GET  /api/nodes          nodes, filtered by ?q= and ?key=
//	GET  /api/nodes/{nid}    one node by identity
//	GET  /api/edges          edge position pairs
//	GET  /api/shortcuts      collapsed topology position pairs
//	GET  /api/view           view mode for ?threshold=
//	GET  /api/cycles         recent cycle records (?limit=)
//	GET  /api/source         configured source and poll interval
//	POST /api/refresh        run one cycle now
//	GET  /events             server-sent events
//	GET  /metrics            prometheus metrics
//	GET  /healthz            liveness
//
// Errors are returned as JSON with {error, details} and an appropriate
// status code.
package handler
