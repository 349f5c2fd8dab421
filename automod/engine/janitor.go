package engine

import (
	"log/slog"
	"time"

	"github.com/oxce5/Discord-bot/automod/countstore"
)

const DefaultJanitorInterval = time.Minute

// Evicts stale entries from both rate windows. Has no timer of its own; the daemon calls Sweep periodically.
type Janitor struct {
	Logger           *slog.Logger
	Joins            countstore.RateWindow
	Messages         countstore.RateWindow
	JoinRetention    time.Duration
	MessageRetention time.Duration
}

type JanitorStats struct {
	JoinKeysEvicted    int
	MessageKeysEvicted int
	JoinKeys           int
	MessageKeys        int
}

func NewJanitor(eng *Engine) *Janitor {
	return &Janitor{
		Logger:           eng.Logger.With("component", "janitor"),
		Joins:            eng.Joins,
		Messages:         eng.Messages,
		JoinRetention:    eng.Config.JoinRetention(),
		MessageRetention: eng.Config.MessageRetention(),
	}
}

// Safe to call concurrently with detector reads and writes.
func (j *Janitor) Sweep(now time.Time) JanitorStats {
	stats := JanitorStats{
		JoinKeysEvicted:    j.Joins.Prune(now, j.JoinRetention),
		MessageKeysEvicted: j.Messages.Prune(now, j.MessageRetention),
		JoinKeys:           j.Joins.Len(),
		MessageKeys:        j.Messages.Len(),
	}
	janitorEvicted.WithLabelValues("joins").Add(float64(stats.JoinKeysEvicted))
	janitorEvicted.WithLabelValues("messages").Add(float64(stats.MessageKeysEvicted))
	windowKeys.WithLabelValues("joins").Set(float64(stats.JoinKeys))
	windowKeys.WithLabelValues("messages").Set(float64(stats.MessageKeys))
	j.Logger.Debug("janitor sweep", "joinsEvicted", stats.JoinKeysEvicted, "messagesEvicted", stats.MessageKeysEvicted, "joinKeys", stats.JoinKeys, "messageKeys", stats.MessageKeys)
	return stats
}
