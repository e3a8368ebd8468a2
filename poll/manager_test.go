// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/classpulse/models"
	"github.com/danielhkuo/classpulse/store"
	"github.com/danielhkuo/classpulse/testutil"
)

func newTestManager() (*Manager, *store.Memory, *testutil.EventRecorder) {
	st := store.NewMemory()
	rec := &testutil.EventRecorder{}
	return NewManager(st, rec), st, rec
}

func redBlueRequest(presenter string, timerSec int) CreateRequest {
	return CreateRequest{
		Question: "Favorite color?",
		Options: []models.CreateOption{
			{Text: "Red"},
			{Text: "Blue"},
		},
		TimerSec:  timerSec,
		Presenter: presenter,
	}
}

func TestCreatePublishesSnapshotWithoutCounts(t *testing.T) {
	m, _, rec := newTestManager()

	id, err := m.Create(context.Background(), redBlueRequest("", 30))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	opened := rec.ByName(models.EventPollOpened)
	require.Len(t, opened, 1)
	assert.Equal(t, models.GroupVoters, opened[0].Group)

	snap, ok := opened[0].Event.Data.(models.PollSnapshot)
	require.True(t, ok, "pollOpened payload must be the public snapshot")
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, "Favorite color?", snap.Question)
	assert.Equal(t, 30, snap.TimerSec)
	require.Len(t, snap.Options, 2)
	assert.Equal(t, models.OptionView{ID: 1, Text: "Red"}, snap.Options[0])
	assert.Equal(t, models.OptionView{ID: 2, Text: "Blue"}, snap.Options[1])
}

func TestCreateAddressesClassGroup(t *testing.T) {
	m, _, rec := newTestManager()

	_, err := m.Create(context.Background(), redBlueRequest("ms-chen", 30))
	require.NoError(t, err)

	opened := rec.ByName(models.EventPollOpened)
	require.Len(t, opened, 1)
	assert.Equal(t, models.ClassGroup("ms-chen"), opened[0].Group)
}

func TestCreateDefaultsTimer(t *testing.T) {
	m, _, rec := newTestManager()

	_, err := m.Create(context.Background(), redBlueRequest("", 0))
	require.NoError(t, err)

	snap := rec.ByName(models.EventPollOpened)[0].Event.Data.(models.PollSnapshot)
	assert.Equal(t, DefaultTimerSec, snap.TimerSec)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		req  CreateRequest
	}{
		{
			name: "empty question",
			req: CreateRequest{
				Question: "   ",
				Options:  []models.CreateOption{{Text: "Red"}, {Text: "Blue"}},
			},
		},
		{
			name: "single option",
			req: CreateRequest{
				Question: "Favorite color?",
				Options:  []models.CreateOption{{Text: "Red"}},
			},
		},
		{
			name: "blank option text",
			req: CreateRequest{
				Question: "Favorite color?",
				Options:  []models.CreateOption{{Text: "Red"}, {Text: "  "}},
			},
		},
		{
			name: "duplicate option ids",
			req: CreateRequest{
				Question: "Favorite color?",
				Options:  []models.CreateOption{{ID: 1, Text: "Red"}, {ID: 1, Text: "Blue"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, rec := newTestManager()

			_, err := m.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, rec.Events(), "rejected create must not publish")
			assert.Nil(t, m.ActiveSnapshot(), "rejected create must not set the pointer")
		})
	}
}

func TestVoteThenDuplicate(t *testing.T) {
	m, _, rec := newTestManager()
	ctx := context.Background()

	id, err := m.Create(ctx, redBlueRequest("", 30))
	require.NoError(t, err)

	tally, err := m.SubmitVote(ctx, id, 1, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.Tally{"Red": 1, "Blue": 0}, tally)

	tallies := rec.ByName(models.EventVoteTally)
	require.Len(t, tallies, 1)
	assert.Equal(t, models.GroupVoters, tallies[0].Group)
	payload := tallies[0].Event.Data.(models.VoteTallyEvent)
	assert.Equal(t, id, payload.PollID)
	assert.Equal(t, models.Tally{"Red": 1, "Blue": 0}, payload.Votes)

	_, err = m.SubmitVote(ctx, id, 2, "alice")
	assert.ErrorIs(t, err, store.ErrDuplicateVote)
	assert.Len(t, rec.ByName(models.EventVoteTally), 1,
		"rejected vote must not publish a tally")
}

func TestVoteValidation(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	_, err := m.SubmitVote(ctx, "p1", 1, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = m.SubmitVote(ctx, "", 1, "alice")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestVoteErrorsPassThrough(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	_, err := m.SubmitVote(ctx, "missing", 1, "alice")
	assert.ErrorIs(t, err, store.ErrPollNotFound)

	id, err := m.Create(ctx, redBlueRequest("", 30))
	require.NoError(t, err)

	_, err = m.SubmitVote(ctx, id, 99, "alice")
	assert.ErrorIs(t, err, store.ErrInvalidOption)

	require.NoError(t, m.Close(ctx, id, models.ReasonManual))
	_, err = m.SubmitVote(ctx, id, 1, "alice")
	assert.ErrorIs(t, err, store.ErrPollClosed)
}

func TestActiveSnapshotLifecycle(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	assert.Nil(t, m.ActiveSnapshot())

	id, err := m.Create(ctx, redBlueRequest("", 30))
	require.NoError(t, err)

	snap := m.ActiveSnapshot()
	require.NotNil(t, snap)
	assert.Equal(t, id, snap.ID)

	// Mutating the returned snapshot must not leak into the manager.
	snap.Options[0].Text = "mutated"
	assert.Equal(t, "Red", m.ActiveSnapshot().Options[0].Text)

	require.NoError(t, m.Close(ctx, id, models.ReasonManual))
	assert.Nil(t, m.ActiveSnapshot())
}

func TestCreateReplacesActivePointer(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	_, err := m.Create(ctx, redBlueRequest("", 30))
	require.NoError(t, err)
	second, err := m.Create(ctx, redBlueRequest("", 30))
	require.NoError(t, err)

	snap := m.ActiveSnapshot()
	require.NotNil(t, snap)
	assert.Equal(t, second, snap.ID)
}

func TestCloseIsIdempotent(t *testing.T) {
	m, _, rec := newTestManager()
	ctx := context.Background()

	id, err := m.Create(ctx, redBlueRequest("", 30))
	require.NoError(t, err)

	require.NoError(t, m.Close(ctx, id, models.ReasonManual))
	require.NoError(t, m.Close(ctx, id, models.ReasonManual))

	assert.Len(t, rec.ByName(models.EventPollClosed), 1,
		"second close must not publish")
}

func TestCloseUnknownPollIsNoop(t *testing.T) {
	m, _, rec := newTestManager()

	require.NoError(t, m.Close(context.Background(), "nope", models.ReasonManual))
	assert.Empty(t, rec.ByName(models.EventPollClosed))
}

func TestCloseCarriesFinalTally(t *testing.T) {
	m, _, rec := newTestManager()
	ctx := context.Background()

	id, err := m.Create(ctx, redBlueRequest("ms-chen", 30))
	require.NoError(t, err)
	_, err = m.SubmitVote(ctx, id, 1, "alice")
	require.NoError(t, err)

	require.NoError(t, m.Close(ctx, id, models.ReasonManual))

	closed := rec.ByName(models.EventPollClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, models.ClassGroup("ms-chen"), closed[0].Group)
	payload := closed[0].Event.Data.(models.PollClosedEvent)
	assert.Equal(t, id, payload.PollID)
	assert.Equal(t, models.Tally{"Red": 1, "Blue": 0}, payload.Votes)
}

func TestTimerExpiryClosesPoll(t *testing.T) {
	m, _, rec := newTestManager()
	ctx := context.Background()

	id, err := m.Create(ctx, redBlueRequest("", 1))
	require.NoError(t, err)

	time.Sleep(1500 * time.Millisecond)

	closed := rec.ByName(models.EventPollClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, id, closed[0].Event.Data.(models.PollClosedEvent).PollID)
	assert.Nil(t, m.ActiveSnapshot())
	assert.Equal(t, 0, m.timers.Len())

	_, err = m.SubmitVote(ctx, id, 1, "alice")
	assert.ErrorIs(t, err, store.ErrPollClosed)
}

func TestManualCloseBeatsTimer(t *testing.T) {
	m, _, rec := newTestManager()
	ctx := context.Background()

	id, err := m.Create(ctx, redBlueRequest("", 1))
	require.NoError(t, err)

	require.NoError(t, m.Close(ctx, id, models.ReasonManual))

	// Wait past the original deadline; the cancelled timer must stay quiet.
	time.Sleep(1500 * time.Millisecond)

	assert.Len(t, rec.ByName(models.EventPollClosed), 1,
		"poll must close exactly once")
	assert.Equal(t, 0, m.timers.Len())
}

func TestConcurrentDuplicateVotes(t *testing.T) {
	m, st, rec := newTestManager()
	ctx := context.Background()

	id, err := m.Create(ctx, redBlueRequest("", 30))
	require.NoError(t, err)

	const attempts = 50
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.SubmitVote(ctx, id, 1+i%2, "alice")
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		} else {
			assert.ErrorIs(t, err, store.ErrDuplicateVote)
		}
	}
	assert.Equal(t, 1, accepted, "exactly one concurrent submission may win")
	assert.Len(t, rec.ByName(models.EventVoteTally), 1)
	assert.Equal(t, 1, st.VoterCount(id))
}

func TestRecoverClosesExpiredAndRearmsRunning(t *testing.T) {
	st := store.NewMemory()
	rec := &testutil.EventRecorder{}
	ctx := context.Background()

	expired := testutil.NewTestPoll("expired", "")
	expired.TimerSec = 1
	expired.CreatedAt = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, st.CreatePoll(ctx, expired))

	running := testutil.NewTestPoll("running", "ms-chen")
	running.TimerSec = 300
	running.CreatedAt = time.Now().UTC().Add(-time.Second)
	require.NoError(t, st.CreatePoll(ctx, running))

	m := NewManager(st, rec)
	require.NoError(t, m.Recover(ctx))

	closed := rec.ByName(models.EventPollClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, "expired", closed[0].Event.Data.(models.PollClosedEvent).PollID)

	got, err := st.GetPoll(ctx, "expired")
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, got.Status)

	snap := m.ActiveSnapshot()
	require.NotNil(t, snap)
	assert.Equal(t, "running", snap.ID)
	assert.Equal(t, 1, m.timers.Len(), "running poll gets its timer re-armed")
}
