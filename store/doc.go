// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists poll records and enforces the vote ledger.

# Implementations

Two interchangeable implementations:

  - SQL: database/sql over lib/pq (postgres) or modernc.org/sqlite.
    Queries use $N placeholders in ascending order, accepted by both
    drivers.
  - Memory: mutex-guarded maps. Used by tests and as the reference model.

Consumers declare their own narrow interfaces (poll.Store,
handlers.PresenterStore); both implementations satisfy them.

# Vote Ledger Contract

RecordVote applies the duplicate check and the tally increment atomically:
the vote row's (poll_id, voter_id) primary key is an insert-if-absent gate,
and the option tally is incremented only when the insert sticks. Under
concurrent submission of the same voter identity, exactly one vote is
accepted; the rest fail with ErrDuplicateVote. A read-then-write check
would let two near-simultaneous votes both pass, which is exactly what
this layout rules out.

# Idempotent Close

ClosePoll is a conditional update (open -> closed). It reports closed=false
for a missing or already-closed poll instead of failing, so racing close
triggers never double-apply.

# Errors

Domain failures are sentinel errors: ErrPollNotFound, ErrPollClosed,
ErrDuplicateVote, ErrInvalidOption. Transient driver failures are wrapped
in ErrUnavailable; match with errors.Is.
*/
package store
