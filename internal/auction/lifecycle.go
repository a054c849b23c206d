package auction

import (
	"time"

	"github.com/ElanScarton/leilao-api/internal/types"
)

// ResolveStatus derives the status an auction is effectively in at a given
// instant. The stored status only wins when it is terminal: an explicit
// FINISHED or CANCELLED write is never overridden by the clock. Everything
// else is derived from the time window.
//
// Boundary instants are inclusive on the open side: at exactly StartTime the
// auction is accepting bids, at exactly EndTime it no longer is. The result is
// monotonic in now: for increasing now the status never moves backwards.
//
// This is a pure function with no error path; invalid time ordering is
// rejected at auction creation, not here.
func ResolveStatus(stored types.Status, startTime, endTime, now time.Time) types.Status {
	if stored.Terminal() {
		return stored
	}
	if now.Before(startTime) {
		return types.StatusPublished
	}
	if now.Before(endTime) {
		return types.StatusInProgress
	}
	return types.StatusFinished
}

// AcceptingBids reports whether an auction in the given stored status and time
// window accepts a bid placed at now.
func AcceptingBids(stored types.Status, startTime, endTime, now time.Time) bool {
	return ResolveStatus(stored, startTime, endTime, now) == types.StatusInProgress
}
