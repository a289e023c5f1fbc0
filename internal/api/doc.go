// Package api implements the HTTP query and debug API of Gray Logic Voice.
//
// This package provides:
//   - Item graph queries: list, resolve, locate, attribute filter, vocabulary
//   - Live state reads and command dispatch through the item store
//   - Deferred command management (list, schedule, cancel)
//   - The command log
//   - Prometheus metrics and component health
//
// # Architecture
//
// The server never owns the item graph. It reads the current snapshot
// through a store accessor on every request, so a reload swaps the graph
// for all later requests without restarting the listener.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
