// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// Timestamps are always written by the application so the DDL stays
// portable between sqlite and postgres.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    question TEXT NOT NULL,
    presenter TEXT NOT NULL DEFAULT '',
    timer_sec INTEGER NOT NULL DEFAULT 60,
    status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'closed')),
    created_at TIMESTAMP NOT NULL,
    closed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_poll_presenter ON poll(presenter);
CREATE INDEX IF NOT EXISTS idx_poll_status ON poll(status);

-- Options (small integer ids, unique per poll)
CREATE TABLE IF NOT EXISTS option (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    id INTEGER NOT NULL,
    text TEXT NOT NULL,
    votes INTEGER NOT NULL DEFAULT 0 CHECK (votes >= 0),
    PRIMARY KEY (poll_id, id)
);

-- Votes (one row per voter per poll; the primary key is the
-- insert-if-absent gate for duplicate submissions)
CREATE TABLE IF NOT EXISTS vote (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    option_id INTEGER NOT NULL,
    cast_at TIMESTAMP NOT NULL,
    PRIMARY KEY (poll_id, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_poll_id ON vote(poll_id);

-- Presenters (upsert-by-name login)
CREATE TABLE IF NOT EXISTS presenter (
    username TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL
);
`
