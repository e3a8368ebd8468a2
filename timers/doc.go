// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package timers schedules poll auto-closure.

# Contract

Arm returns a Handle whose action fires exactly once unless cancelled
first:

	h := reg.Arm(pollID, 30*time.Second, manager.expire)
	...
	reg.Cancel(h) // or reg.CancelPoll(pollID)

Expiry and cancellation are mutually exclusive: for any handle, exactly
one of them wins. Cancelling after expiry has fired returns false and has
no effect. A handle leaves the registry exactly once, by whichever of the
two won.

Built on time.AfterFunc; the race between Stop and an already-running
callback is resolved by a per-handle done flag, not by relying on Stop's
return value.
*/
package timers
