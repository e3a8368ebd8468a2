// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package timers

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiryFiresExactlyOnce(t *testing.T) {
	reg := New()

	var fired atomic.Int32
	reg.Arm("p1", 20*time.Millisecond, func(pollID string) {
		assert.Equal(t, "p1", pollID)
		fired.Add(1)
	})

	time.Sleep(120 * time.Millisecond)

	require.Equal(t, int32(1), fired.Load())
	assert.Equal(t, 0, reg.Len(), "fired handle should leave the registry")
}

func TestCancelSuppressesExpiry(t *testing.T) {
	reg := New()

	var fired atomic.Int32
	h := reg.Arm("p1", 50*time.Millisecond, func(string) { fired.Add(1) })

	require.True(t, reg.Cancel(h))
	assert.Equal(t, 0, reg.Len())

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load(), "cancelled handle must not fire")
}

func TestCancelAfterExpiryIsNoop(t *testing.T) {
	reg := New()

	h := reg.Arm("p1", 10*time.Millisecond, func(string) {})
	time.Sleep(80 * time.Millisecond)

	assert.False(t, reg.Cancel(h))
	assert.False(t, reg.CancelPoll("p1"))
}

func TestCancelUnknownPoll(t *testing.T) {
	reg := New()
	assert.False(t, reg.CancelPoll("nope"))
}

func TestDoubleCancel(t *testing.T) {
	reg := New()

	h := reg.Arm("p1", time.Minute, func(string) {})
	require.True(t, reg.Cancel(h))
	assert.False(t, reg.Cancel(h))
}

func TestRearmReplacesHandle(t *testing.T) {
	reg := New()

	var firstFired, secondFired atomic.Int32
	reg.Arm("p1", time.Minute, func(string) { firstFired.Add(1) })
	reg.Arm("p1", 10*time.Millisecond, func(string) { secondFired.Add(1) })

	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, int32(0), firstFired.Load(), "replaced handle must not fire")
	assert.Equal(t, int32(1), secondFired.Load())
	assert.Equal(t, 0, reg.Len())
}

// TestCancelVersusExpiryRace drives cancellation head-on into expiry for
// many handles: for each one, exactly one of {expiry, cancellation} must
// win, never both, never neither.
func TestCancelVersusExpiryRace(t *testing.T) {
	reg := New()
	const n = 100

	fired := make([]atomic.Bool, n)
	cancelled := make([]atomic.Bool, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		pollID := fmt.Sprintf("p%d", i)
		idx := i
		h := reg.Arm(pollID, 5*time.Millisecond, func(string) {
			fired[idx].Store(true)
		})

		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(5 * time.Millisecond)
			if reg.Cancel(h) {
				cancelled[idx].Store(true)
			}
		}()
	}

	wg.Wait()
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < n; i++ {
		f, c := fired[i].Load(), cancelled[i].Load()
		assert.False(t, f && c, "handle %d: both expiry and cancellation won", i)
		assert.True(t, f || c, "handle %d: neither expiry nor cancellation won", i)
	}
	assert.Equal(t, 0, reg.Len())
}
