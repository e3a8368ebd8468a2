// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package timers

import (
	"sync"
	"time"
)

// Registry holds one cancellable deferred action per open poll.
type Registry struct {
	mu      sync.Mutex
	handles map[string]*Handle
}

// Handle is a fire-once scheduled action. Exactly one of expiry or
// cancellation wins; the done flag under the handle mutex is the arbiter.
type Handle struct {
	pollID string
	timer  *time.Timer

	mu   sync.Mutex
	done bool
}

func New() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

// Arm schedules onExpire(pollID) to run once after d, unless the handle is
// cancelled first. Re-arming a poll id replaces (cancels) the old handle.
func (r *Registry) Arm(pollID string, d time.Duration, onExpire func(pollID string)) *Handle {
	h := &Handle{pollID: pollID}
	h.timer = time.AfterFunc(d, func() {
		h.mu.Lock()
		if h.done {
			h.mu.Unlock()
			return
		}
		h.done = true
		h.mu.Unlock()

		r.remove(h)
		onExpire(pollID)
	})

	r.mu.Lock()
	prev := r.handles[pollID]
	r.handles[pollID] = h
	r.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	return h
}

// Cancel stops the handle's pending action. Returns false if expiry already
// fired (or the handle was cancelled before); cancellation after expiry is
// a no-op.
func (r *Registry) Cancel(h *Handle) bool {
	if h == nil || !h.cancel() {
		return false
	}
	r.remove(h)
	return true
}

// CancelPoll cancels the handle currently registered for pollID, if any.
func (r *Registry) CancelPoll(pollID string) bool {
	r.mu.Lock()
	h := r.handles[pollID]
	r.mu.Unlock()
	return r.Cancel(h)
}

// Len reports the number of pending handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

func (h *Handle) cancel() bool {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		return false
	}
	h.done = true
	h.mu.Unlock()

	h.timer.Stop()
	return true
}

// remove drops the registry entry, but only if it still points at h;
// a replacement armed for the same poll id must not be evicted.
func (r *Registry) remove(h *Handle) {
	r.mu.Lock()
	if r.handles[h.pollID] == h {
		delete(r.handles, h.pollID)
	}
	r.mu.Unlock()
}
