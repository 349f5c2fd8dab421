package countstore

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// In-process RateWindow. Each key's read-modify-write runs inside a single xsync compute call, so a record and a count on the same key never interleave, while operations on different keys proceed in parallel.
type MemRateWindow struct {
	seqs *xsync.MapOf[string, []time.Time]
}

func NewMemRateWindow() *MemRateWindow {
	return &MemRateWindow{
		seqs: xsync.NewMapOf[string, []time.Time](),
	}
}

func (w *MemRateWindow) Record(key string, ts time.Time) {
	w.seqs.Compute(key, func(seq []time.Time, loaded bool) ([]time.Time, bool) {
		if !loaded {
			seq = getOrInsertEmpty()
		}
		return append(seq, ts), false
	})
}

func (w *MemRateWindow) CountWithin(key string, horizon time.Duration, now time.Time) int {
	count := 0
	w.seqs.Compute(key, func(seq []time.Time, loaded bool) ([]time.Time, bool) {
		if !loaded {
			// nothing to prune, and nothing should be inserted for a read
			return nil, true
		}
		seq = pruneSeq(seq, horizon, now)
		count = len(seq)
		return seq, deleteIfEmpty(seq)
	})
	return count
}

func (w *MemRateWindow) Prune(now time.Time, horizon time.Duration) int {
	keys := []string{}
	w.seqs.Range(func(key string, _ []time.Time) bool {
		keys = append(keys, key)
		return true
	})

	evicted := 0
	for _, key := range keys {
		w.seqs.Compute(key, func(seq []time.Time, loaded bool) ([]time.Time, bool) {
			if !loaded {
				return nil, true
			}
			seq = pruneSeq(seq, horizon, now)
			if deleteIfEmpty(seq) {
				evicted++
				return nil, true
			}
			return seq, false
		})
	}
	return evicted
}

func (w *MemRateWindow) Count(key string) int {
	seq, ok := w.seqs.Load(key)
	if !ok {
		return 0
	}
	return len(seq)
}

func (w *MemRateWindow) Len() int {
	return w.seqs.Size()
}

func getOrInsertEmpty() []time.Time {
	return make([]time.Time, 0, 8)
}

func deleteIfEmpty(seq []time.Time) bool {
	return len(seq) == 0
}

// drops stale entries in place, re-using the backing array
func pruneSeq(seq []time.Time, horizon time.Duration, now time.Time) []time.Time {
	idx := staleCount(seq, horizon, now)
	if idx == 0 {
		return seq
	}
	n := copy(seq, seq[idx:])
	return seq[:n]
}
