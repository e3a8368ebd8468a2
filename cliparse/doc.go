// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3000)
  - DatabaseURL: Connection string (default: classpulse.db for sqlite)
  - DatabaseType: "sqlite" (default) or "postgres"
  - AllowedOrigins: Client origins allowed for CORS and websocket upgrades

# CLI Flags

	-p        Server port
	-d        Database URL
	-t        Database type
	--origins Comma-separated client origins

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	CLIENT_ORIGINS → --origins

CLI flags take precedence over environment variables. A .env file in the
working directory is loaded by main before parsing.

# Validation

ParseFlags returns an error if:

  - DATABASE_TYPE is neither sqlite nor postgres
  - DATABASE_TYPE is postgres and no DATABASE_URL is provided
*/
package cliparse
