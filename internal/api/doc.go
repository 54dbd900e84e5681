// Package api implements the HTTP REST API and WebSocket server that render
// the realtime view.
//
// This package provides:
//   - REST endpoints for the ordered reading table and the focused device
//   - A WebSocket hub pushing reading.updated and selection.changed events
//   - JWT bearer authentication with single-use WebSocket tickets
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - Prometheus exposition at /metrics and a JSON summary at /api/v1/metrics
//
// # Lifecycle
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// The server only reads and selects; message ingestion belongs to the view
// and its transport.
package api
