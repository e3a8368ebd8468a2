// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package hub routes events to groups of connected participants.

# Groups

  - "voters": every connection that joined with the voter role
  - "presenters": every connection that joined with the presenter role
  - "class:<presenter>": connections that declared a class affiliation

# Delivery Semantics

Publish delivers to exactly the set of connections joined at publish time,
best effort. Nothing is queued for disconnected or late-joining
participants; a reconnecting voter re-joins and recovers state from the
lifecycle manager's active snapshot instead.

The hub carries no poll state. It satisfies the lifecycle manager's
Publisher interface directly.
*/
package hub
