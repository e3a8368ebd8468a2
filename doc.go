// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the classpulse server.

Classpulse is a live classroom polling service: one presenter broadcasts a
timed multiple-choice question, connected voters cast at most one vote each,
tallies stream out in real time, and the question closes on timeout or on
the presenter's command.

# Starting the Server

The server runs on an embedded sqlite database by default:

	go run main.go

Or against PostgreSQL:

	DATABASE_TYPE=postgres DATABASE_URL=postgres://... go run main.go

A .env file in the working directory is loaded automatically.

# Configuration

Optional settings:

  - PORT (-p): Server port (default: 3000)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - DATABASE_URL (-d): Connection string (default: classpulse.db)
  - CLIENT_ORIGINS (--origins): Allowed client origins for CORS/websockets

# Architecture

The server uses a handler-based architecture with dependency injection:

  - poll: Poll lifecycle manager (the core state machine)
  - store: Poll records and the vote ledger (sqlite/postgres or memory)
  - timers: Cancellable fire-once closure timers
  - hub: Connection registry and group-addressed event fan-out
  - handlers: Websocket protocol and presenter HTTP endpoints
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Event, request/response, and domain types
  - auth: Random identity generation
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
