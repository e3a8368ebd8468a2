// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import "errors"

var (
	ErrPollNotFound  = errors.New("poll not found")
	ErrPollClosed    = errors.New("poll closed")
	ErrDuplicateVote = errors.New("already voted")
	ErrInvalidOption = errors.New("invalid option")

	// ErrUnavailable wraps transient persistence failures (driver errors,
	// timeouts). Callers may retry reads once; writes are never retried.
	ErrUnavailable = errors.New("store unavailable")
)
