// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth generates random identities.

# Identity Generation

Random hex IDs for connections and polls:

	connID, err := auth.GenerateID(16)

Voter tokens for participants that join without a stable identity:

	token, err := auth.GenerateVoterToken()

Fallback presenter usernames for empty login requests:

	name := auth.GeneratePresenterName() // "presenter_a1b2c3"

There is no presenter authentication: anyone may act as a presenter.
Tokens exist only to deduplicate votes, not to prove identity.
*/
package auth
