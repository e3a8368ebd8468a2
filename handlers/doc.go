// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the websocket event handler and HTTP handlers.

# WebSocket Protocol

GET /ws upgrades to a websocket speaking JSON envelopes:

	{"event": "join", "data": {"role": "voter", "affiliation": "ms-chen"}}

Client -> server events:

  - join: role, identity?, affiliation?
  - createPoll: question, options, timer_sec (presenter role)
  - submitVote: poll_id, option_id, voter_id? (voter role)
  - closePollNow: poll_id (presenter role)

Server -> client events:

  - joined: ack with assigned identity and active snapshot (or null)
  - pollOpened: public poll view, no vote counts
  - voteTally: option text -> count, after each accepted vote
  - pollClosed: final tally
  - voteAccepted / voteRejected(reason): unicast to the submitter
  - createPollAccepted / createPollRejected(reason): unicast to the presenter

Rejections are unicast to the originating connection only and never affect
other connections. Delivery to groups is best effort: a reconnecting client
re-joins and recovers state from the joined ack.

# Presenter Endpoints

	POST /presenter-login              → Login (upsert-by-name)
	GET  /presenters/{username}/polls  → ListPolls (newest first)

Handlers take their dependencies via constructors:

	wsHandler := handlers.NewWSHandler(manager, hub, cfg)
	presenterHandler := handlers.NewPresenterHandler(store)
*/
package handlers
