// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"time"
)

// Poll status constants
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Connection roles
const (
	RoleVoter     = "voter"
	RolePresenter = "presenter"
)

// CloseReason records what triggered a poll closure.
type CloseReason string

const (
	ReasonTimeout CloseReason = "timeout"
	ReasonManual  CloseReason = "manual"
)

// Group names for the connection hub
const (
	GroupVoters     = "voters"
	GroupPresenters = "presenters"
)

// ClassGroup returns the class-scoped group name for a presenter.
func ClassGroup(presenter string) string {
	return "class:" + presenter
}

// Client -> server event names
const (
	EventJoin         = "join"
	EventCreatePoll   = "createPoll"
	EventSubmitVote   = "submitVote"
	EventClosePollNow = "closePollNow"
)

// Server -> client event names
const (
	EventJoined             = "joined"
	EventPollOpened         = "pollOpened"
	EventVoteTally          = "voteTally"
	EventPollClosed         = "pollClosed"
	EventVoteAccepted       = "voteAccepted"
	EventVoteRejected       = "voteRejected"
	EventCreatePollAccepted = "createPollAccepted"
	EventCreatePollRejected = "createPollRejected"
)

// Event is the outbound wire envelope.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// ClientEvent is the inbound wire envelope; Data is decoded per event kind.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Event payloads (client -> server)

type JoinRequest struct {
	Role        string `json:"role"`
	Identity    string `json:"identity,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
}

type CreatePollRequest struct {
	Question  string         `json:"question"`
	Options   []CreateOption `json:"options"`
	TimerSec  int            `json:"timer_sec"`
	Presenter string         `json:"presenter,omitempty"`
}

type CreateOption struct {
	ID   int    `json:"id,omitempty"`
	Text string `json:"text"`
}

type SubmitVoteRequest struct {
	PollID   string `json:"poll_id"`
	OptionID int    `json:"option_id"`
	VoterID  string `json:"voter_id,omitempty"`
}

type ClosePollRequest struct {
	PollID string `json:"poll_id"`
}

// Event payloads (server -> client)

// JoinedEvent acknowledges a join. Active is the public snapshot of the
// currently open poll, or null when none is active.
type JoinedEvent struct {
	Role     string        `json:"role"`
	Identity string        `json:"identity"`
	Active   *PollSnapshot `json:"active"`
}

type VoteTallyEvent struct {
	PollID string `json:"poll_id"`
	Votes  Tally  `json:"votes"`
}

type PollClosedEvent struct {
	PollID string `json:"poll_id"`
	Votes  Tally  `json:"votes"`
}

type VoteAcceptedEvent struct {
	PollID string `json:"poll_id"`
}

type CreatePollAcceptedEvent struct {
	PollID string `json:"poll_id"`
}

// RejectedEvent carries the reason for voteRejected and createPollRejected.
type RejectedEvent struct {
	Reason string `json:"reason"`
}

// HTTP request/response types

type PresenterLoginRequest struct {
	Username string `json:"username"`
}

type PresenterLoginResponse struct {
	Username string `json:"username"`
}

type PollHistoryItem struct {
	Poll
	CreatedAgo string `json:"created_ago"`
}

type PollHistoryResponse struct {
	Polls []PollHistoryItem `json:"polls"`
}

// Domain types

type Poll struct {
	ID        string     `json:"id"`
	Question  string     `json:"question"`
	Options   []Option   `json:"options"`
	Presenter string     `json:"presenter,omitempty"`
	TimerSec  int        `json:"timer_sec"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

type Option struct {
	ID    int    `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// Tally maps option text to vote count.
type Tally map[string]int

// PollSnapshot is the public view of an open poll sent to voters.
// Vote counts are omitted so late joiners never see partial results.
type PollSnapshot struct {
	ID        string       `json:"id"`
	Question  string       `json:"question"`
	Options   []OptionView `json:"options"`
	TimerSec  int          `json:"timer_sec"`
	CreatedAt time.Time    `json:"created_at"`
}

type OptionView struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// TallyOf derives the option-text -> count map from a poll's options.
func TallyOf(p Poll) Tally {
	t := make(Tally, len(p.Options))
	for _, o := range p.Options {
		t[o.Text] = o.Votes
	}
	return t
}

// SnapshotOf builds the public, count-free view of a poll.
func SnapshotOf(p Poll) PollSnapshot {
	views := make([]OptionView, len(p.Options))
	for i, o := range p.Options {
		views[i] = OptionView{ID: o.ID, Text: o.Text}
	}
	return PollSnapshot{
		ID:        p.ID,
		Question:  p.Question,
		Options:   views,
		TimerSec:  p.TimerSec,
		CreatedAt: p.CreatedAt,
	}
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
