// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/danielhkuo/classpulse/models"
)

// Memory is a mutex-guarded in-memory store. It implements the same
// contracts as SQL and is the reference model used by tests; nothing
// survives a restart.
type Memory struct {
	mu         sync.Mutex
	polls      map[string]*memPoll
	presenters map[string]time.Time
}

type memPoll struct {
	poll   models.Poll
	voters map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		polls:      make(map[string]*memPoll),
		presenters: make(map[string]time.Time),
	}
}

func (m *Memory) CreatePoll(_ context.Context, p models.Poll) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.polls[p.ID] = &memPoll{
		poll:   clonePoll(p),
		voters: make(map[string]bool),
	}
	return nil
}

func (m *Memory) GetPoll(_ context.Context, id string) (models.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mp, ok := m.polls[id]
	if !ok {
		return models.Poll{}, ErrPollNotFound
	}
	return clonePoll(mp.poll), nil
}

func (m *Memory) ClosePoll(_ context.Context, id string, closedAt time.Time) (models.Poll, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mp, ok := m.polls[id]
	if !ok || mp.poll.Status != models.StatusOpen {
		return models.Poll{}, false, nil
	}

	mp.poll.Status = models.StatusClosed
	t := closedAt
	mp.poll.ClosedAt = &t
	return clonePoll(mp.poll), true, nil
}

func (m *Memory) RecordVote(_ context.Context, pollID string, optionID int, voterID string) (models.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mp, ok := m.polls[pollID]
	if !ok {
		return models.Poll{}, ErrPollNotFound
	}
	if mp.poll.Status != models.StatusOpen {
		return models.Poll{}, ErrPollClosed
	}

	idx := -1
	for i, opt := range mp.poll.Options {
		if opt.ID == optionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Poll{}, ErrInvalidOption
	}

	// Insert-if-absent is the gate; the tally moves only when it sticks.
	if mp.voters[voterID] {
		return models.Poll{}, ErrDuplicateVote
	}
	mp.voters[voterID] = true
	mp.poll.Options[idx].Votes++

	return clonePoll(mp.poll), nil
}

func (m *Memory) OpenPolls(_ context.Context) ([]models.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	polls := []models.Poll{}
	for _, mp := range m.polls {
		if mp.poll.Status == models.StatusOpen {
			polls = append(polls, clonePoll(mp.poll))
		}
	}
	sort.Slice(polls, func(i, j int) bool {
		return polls[i].CreatedAt.Before(polls[j].CreatedAt)
	})
	return polls, nil
}

func (m *Memory) EnsurePresenter(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.presenters[username]; !ok {
		m.presenters[username] = time.Now().UTC()
	}
	return nil
}

func (m *Memory) PollsByPresenter(_ context.Context, username string) ([]models.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	polls := []models.Poll{}
	for _, mp := range m.polls {
		if mp.poll.Presenter == username {
			polls = append(polls, clonePoll(mp.poll))
		}
	}
	sort.Slice(polls, func(i, j int) bool {
		return polls[i].CreatedAt.After(polls[j].CreatedAt)
	})
	return polls, nil
}

// VoterCount reports the voter-record cardinality for a poll.
// Test hook for the "tally sum equals voter count" invariant.
func (m *Memory) VoterCount(pollID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	mp, ok := m.polls[pollID]
	if !ok {
		return 0
	}
	return len(mp.voters)
}

func clonePoll(p models.Poll) models.Poll {
	out := p
	out.Options = make([]models.Option, len(p.Options))
	copy(out.Options, p.Options)
	if p.ClosedAt != nil {
		t := *p.ClosedAt
		out.ClosedAt = &t
	}
	return out
}
