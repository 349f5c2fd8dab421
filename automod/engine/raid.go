package engine

import (
	"context"
)

const (
	triggerBurst = "burst"
	triggerAge   = "age"
)

// Raid detector. Records the join in the guild's window, then flags the join if the window is over threshold (burst trigger) or the account is younger than the age threshold (age trigger). Only the age trigger adds the member to the suspicious account set.
//
// Never panics; a recovered panic yields a clean verdict.
func (eng *Engine) CheckRaid(ctx context.Context, evt JoinEvent) (raid bool) {
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("raid detector exception", "err", r, "guild", evt.GuildID, "member", evt.MemberID)
			eventErrorCount.WithLabelValues("raid-check").Inc()
			raid = false
		}
	}()

	trigger := eng.raidTrigger(evt)
	if trigger == "" {
		return false
	}
	verdictCount.WithLabelValues("raid", trigger).Inc()
	eng.Logger.Warn("raid detected", "trigger", trigger, "guild", evt.GuildID, "member", evt.MemberID, "accountAgeDays", evt.AccountAgeDays())
	return true
}

func (eng *Engine) raidTrigger(evt JoinEvent) string {
	now := evt.ObservedAt
	eng.Joins.Record(evt.GuildID, now)
	if eng.Joins.CountWithin(evt.GuildID, eng.Config.JoinWindow(), now) > eng.Config.MaxJoinsPerMinute {
		return triggerBurst
	}
	if now.Sub(evt.AccountCreatedAt) < eng.Config.AccountAgeThreshold() {
		eng.Suspicious.Add(evt.GuildID, evt.MemberID)
		return triggerAge
	}
	return ""
}
