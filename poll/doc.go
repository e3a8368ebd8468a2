// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package poll orchestrates the lifecycle of the single broadcastable poll.

# State Machine

Polls move Open -> Closed, never back. Close is idempotent: invoking it any
number of times (timer expiry, manual command, or both racing) yields one
status transition, one timer cancellation, and one pollClosed broadcast.
The store's conditional update picks the winner; the loser is a silent
no-op.

# Active Poll Pointer

The manager exclusively owns the process-wide active poll pointer used to
replay state to late joiners. It is set by Create, cleared by Close, and
only ever read through ActiveSnapshot, which strips vote counts.

# Concurrency

The manager mutex serializes poll-status writes and pointer updates. Vote
deduplication is not handled here: it is delegated to the store's atomic
insert-if-absent, which is the per-poll serialization point for concurrent
submissions. Store access carries a bounded timeout; a timer expiry whose
auto-close fails leaves the poll open and is only logged.

# Addressing

All lifecycle events (pollOpened, voteTally, pollClosed) go to one group
per poll, fixed at creation: class:<presenter> when the poll carries a
presenter affiliation, the global voter group otherwise.
*/
package poll
