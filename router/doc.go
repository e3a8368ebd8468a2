// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router wires routes using Go 1.22+ method routing.

# Routes

	GET  /health                       → liveness probe
	GET  /ws                           → websocket event stream
	POST /presenter-login              → presenter upsert
	GET  /presenters/{username}/polls  → poll history
	GET  /                             → API banner

The returned handler is wrapped in CORS for the configured client origins.
*/
package router
