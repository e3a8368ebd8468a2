// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/classpulse/models"
	"github.com/danielhkuo/classpulse/timers"
)

// ErrValidation rejects malformed create requests before any state changes.
var ErrValidation = errors.New("validation error")

// DefaultTimerSec is used when a create request carries no timer.
const DefaultTimerSec = 60

// storeTimeout bounds every store access so no operation blocks
// indefinitely; expiry surfaces as ErrUnavailable from the store.
const storeTimeout = 5 * time.Second

// Store is the persistence contract the manager needs.
type Store interface {
	CreatePoll(ctx context.Context, p models.Poll) error
	ClosePoll(ctx context.Context, id string, closedAt time.Time) (models.Poll, bool, error)
	RecordVote(ctx context.Context, pollID string, optionID int, voterID string) (models.Poll, error)
	OpenPolls(ctx context.Context) ([]models.Poll, error)
}

// Publisher fans events out to a connection group.
type Publisher interface {
	Publish(group string, e models.Event)
}

// CreateRequest is the validated input for opening a poll.
type CreateRequest struct {
	Question  string
	Options   []models.CreateOption
	TimerSec  int
	Presenter string
}

// Manager sequences the poll lifecycle: create -> open -> closed. It is the
// only writer of poll status and exclusively owns the active poll pointer
// and the timer handles. The manager mutex serializes status and pointer
// writes; vote dedup is delegated to the store's atomic conditional insert.
type Manager struct {
	store  Store
	timers *timers.Registry
	pub    Publisher

	mu     sync.Mutex
	active *models.PollSnapshot
}

func NewManager(store Store, pub Publisher) *Manager {
	return &Manager{
		store:  store,
		timers: timers.New(),
		pub:    pub,
	}
}

// Create validates the request, persists a new open poll with zero tallies,
// arms its closure timer, replaces the active poll pointer, and publishes
// pollOpened to the poll's audience group. Returns the new poll id.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (string, error) {
	p, err := buildPoll(req)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := m.store.CreatePoll(cctx, p); err != nil {
		return "", fmt.Errorf("create poll: %w", err)
	}

	m.timers.Arm(p.ID, time.Duration(p.TimerSec)*time.Second, m.expire)

	snap := models.SnapshotOf(p)
	m.active = &snap

	m.pub.Publish(audience(p), models.Event{Event: models.EventPollOpened, Data: snap})

	slog.Info("poll opened", "poll_id", p.ID, "presenter", p.Presenter, "timer_sec", p.TimerSec)
	return p.ID, nil
}

// Close finalizes a poll. Closing a missing or already-closed poll is a
// silent no-op so that a timer expiry racing a manual close never
// double-applies: the store's conditional update decides the winner. On a
// real transition the pending timer is cancelled synchronously before
// returning, the active pointer is cleared if it referenced this poll, and
// pollClosed goes out with the final tally.
func (m *Manager) Close(ctx context.Context, pollID string, reason models.CloseReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	p, closed, err := m.store.ClosePoll(cctx, pollID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("close poll: %w", err)
	}
	if !closed {
		return nil
	}

	m.timers.CancelPoll(pollID)

	if m.active != nil && m.active.ID == pollID {
		m.active = nil
	}

	m.pub.Publish(audience(p), models.Event{
		Event: models.EventPollClosed,
		Data:  models.PollClosedEvent{PollID: pollID, Votes: models.TallyOf(p)},
	})

	slog.Info("poll closed", "poll_id", pollID, "reason", reason)
	return nil
}

// SubmitVote records at most one vote per (poll, voter) pair and publishes
// the updated tally to the poll's audience group. The returned tally is for
// the submitter's acknowledgement.
func (m *Manager) SubmitVote(ctx context.Context, pollID string, optionID int, voterID string) (models.Tally, error) {
	if voterID == "" {
		return nil, fmt.Errorf("%w: voter identity is required", ErrValidation)
	}
	if pollID == "" {
		return nil, fmt.Errorf("%w: poll id is required", ErrValidation)
	}

	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	p, err := m.store.RecordVote(cctx, pollID, optionID, voterID)
	if err != nil {
		return nil, err
	}

	tally := models.TallyOf(p)
	m.pub.Publish(audience(p), models.Event{
		Event: models.EventVoteTally,
		Data:  models.VoteTallyEvent{PollID: pollID, Votes: tally},
	})

	slog.Info("vote recorded", "poll_id", pollID, "option_id", optionID)
	return tally, nil
}

// ActiveSnapshot returns the public view of the currently open poll, or nil
// when none is active. Vote counts are never included.
func (m *Manager) ActiveSnapshot() *models.PollSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return nil
	}
	snap := *m.active
	snap.Options = make([]models.OptionView, len(m.active.Options))
	copy(snap.Options, m.active.Options)
	return &snap
}

// Recover restores state after a restart: open polls whose deadline already
// passed are closed as timeouts, the rest get timers re-armed for their
// remaining duration, and the newest running poll becomes the active one.
func (m *Manager) Recover(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	open, err := m.store.OpenPolls(cctx)
	if err != nil {
		return fmt.Errorf("recover open polls: %w", err)
	}

	now := time.Now().UTC()
	var newest *models.Poll
	for i := range open {
		p := open[i]
		remaining := p.CreatedAt.Add(time.Duration(p.TimerSec) * time.Second).Sub(now)
		if remaining <= 0 {
			if err := m.Close(ctx, p.ID, models.ReasonTimeout); err != nil {
				slog.Error("failed to close expired poll during recovery", "poll_id", p.ID, "error", err)
			}
			continue
		}

		m.mu.Lock()
		m.timers.Arm(p.ID, remaining, m.expire)
		m.mu.Unlock()
		slog.Info("re-armed recovered poll", "poll_id", p.ID, "remaining", remaining)

		if newest == nil || p.CreatedAt.After(newest.CreatedAt) {
			newest = &open[i]
		}
	}

	if newest != nil {
		snap := models.SnapshotOf(*newest)
		m.mu.Lock()
		m.active = &snap
		m.mu.Unlock()
		slog.Info("restored active poll", "poll_id", newest.ID)
	}
	return nil
}

// expire runs on the timer goroutine. A failed auto-close is logged and the
// poll stays open for a later manual close; it never crashes the process.
func (m *Manager) expire(pollID string) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.Close(ctx, pollID, models.ReasonTimeout); err != nil {
		slog.Error("auto-close failed, poll remains open", "poll_id", pollID, "error", err)
	}
}

// audience is the single addressing rule for all lifecycle events: the
// class-scoped group when the poll carries a presenter affiliation,
// otherwise the global voter group.
func audience(p models.Poll) string {
	if p.Presenter != "" {
		return models.ClassGroup(p.Presenter)
	}
	return models.GroupVoters
}

func buildPoll(req CreateRequest) (models.Poll, error) {
	if strings.TrimSpace(req.Question) == "" {
		return models.Poll{}, fmt.Errorf("%w: question is required", ErrValidation)
	}
	if len(req.Options) < 2 {
		return models.Poll{}, fmt.Errorf("%w: at least two options are required", ErrValidation)
	}

	seen := make(map[int]bool, len(req.Options))
	options := make([]models.Option, len(req.Options))
	for i, opt := range req.Options {
		text := strings.TrimSpace(opt.Text)
		if text == "" {
			return models.Poll{}, fmt.Errorf("%w: option text must not be empty", ErrValidation)
		}
		id := opt.ID
		if id == 0 {
			id = i + 1
		}
		if seen[id] {
			return models.Poll{}, fmt.Errorf("%w: duplicate option id %d", ErrValidation, id)
		}
		seen[id] = true
		options[i] = models.Option{ID: id, Text: text}
	}

	timerSec := req.TimerSec
	if timerSec <= 0 {
		timerSec = DefaultTimerSec
	}

	return models.Poll{
		ID:        uuid.NewString(),
		Question:  strings.TrimSpace(req.Question),
		Options:   options,
		Presenter: req.Presenter,
		TimerSec:  timerSec,
		Status:    models.StatusOpen,
		CreatedAt: time.Now().UTC(),
	}, nil
}
