package engine

import (
	"context"
)

// Spam detector. Bot authors are ignored entirely (no window mutation). Otherwise the message is recorded in the author's window, and flagged if the count within the spam window exceeds the per-second limit.
//
// Never panics; a recovered panic yields a clean verdict.
func (eng *Engine) CheckSpam(ctx context.Context, evt MessageEvent) (spam bool) {
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("spam detector exception", "err", r, "author", evt.AuthorID, "message", evt.MessageID)
			eventErrorCount.WithLabelValues("spam-check").Inc()
			spam = false
		}
	}()

	if evt.AuthorIsBot {
		return false
	}
	now := evt.ObservedAt
	eng.Messages.Record(evt.AuthorID, now)
	count := eng.Messages.CountWithin(evt.AuthorID, eng.Config.SpamWindow(), now)
	if count <= eng.Config.MaxMessagesPerSecond {
		return false
	}
	verdictCount.WithLabelValues("spam", "burst").Inc()
	eng.Logger.Warn("spam detected", "author", evt.AuthorID, "guild", evt.GuildID, "channel", evt.ChannelID, "count", count)
	return true
}
