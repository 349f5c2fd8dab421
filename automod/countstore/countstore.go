package countstore

import (
	"time"
)

// RateWindow tracks ordered event timestamps per key (a guild ID or user ID) and answers "how many events in the last T" queries.
//
// Timestamps for a single key are expected to arrive in non-decreasing order; there is no out-of-order correction. Implementations must be safe for concurrent use, and each method must be atomic with respect to the key(s) it touches.
type RateWindow interface {
	// Appends a timestamp to the key's sequence, creating the sequence if needed.
	Record(key string, ts time.Time)
	// Prunes entries for the key which are not newer than now-horizon, then returns the count of what remains. The key is deleted if nothing remains.
	CountWithin(key string, horizon time.Duration, now time.Time) int
	// Prunes all keys against now-horizon, deleting any key which ends up empty. Returns the number of keys deleted.
	Prune(now time.Time, horizon time.Duration) int
	// Current (un-pruned) length of the key's sequence
	Count(key string) int
	// Number of keys currently tracked
	Len() int
}

// returns the number of leading entries in a non-decreasing sequence which fall outside the window ending at "now"
func staleCount(seq []time.Time, horizon time.Duration, now time.Time) int {
	cutoff := now.Add(-horizon)
	idx := 0
	for idx < len(seq) && !seq[idx].After(cutoff) {
		idx++
	}
	return idx
}
