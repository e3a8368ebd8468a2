// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The DDL is shared between sqlite and postgres, so column defaults that are
dialect-specific (NOW() and friends) are avoided; timestamps are written by
the application.

# Tables

  - poll: Question, presenter affiliation, timer, lifecycle status
  - option: Voting options per poll with aggregate vote counts
  - vote: One row per (poll, voter); gates duplicate submissions
  - presenter: Upserted presenter usernames

# Relationships

	poll 1──* option
	poll 1──* vote

Foreign keys use ON DELETE CASCADE.

# Invariants enforced here

  - vote PRIMARY KEY (poll_id, voter_id): at most one vote per voter per
    poll, even under concurrent submission
  - option.votes >= 0
  - poll.status ∈ {open, closed}
*/
package db
